package user

import (
	"context"

	"github.com/topsell/tams/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service sending its emails synchronously.
func NewServiceMock(db core.DB, repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	svc := NewService(db, repo, mailSvc, conf).(*service)
	return &serviceMock{service: *svc}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	cred, err := svc.getResetCredentials(ctx, email)
	if err != nil || cred == nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(*cred)
	return nil
}
