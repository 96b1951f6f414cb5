package main

import (
	"context"
	"time"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	cred, err := cli.usrRepo.GetCredentials(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if err := cred.SetPassword(pwd); err != nil {
		return err
	}
	cred.UpdatedAt = time.Now().UTC()
	if _, err := cli.usrRepo.UpdateCredentials(ctx, cred); err != nil {
		return err
	}
	return nil
}
