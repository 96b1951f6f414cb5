package user

import (
	"context"
	"net/mail"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrProfileNotFound      = errors.New("user profile not found")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailNotConfirmed    = errors.New("email not confirmed")
	ErrRegistrationDisabled = errors.New("Server is not configured for auto-verified registration")
	ErrInvalidResetLink     = errors.New("invalid reset link")
	errEmailRegistered      = errors.New("Email already registered. Please login.")

	profileWarning = "User profile was not created"
)

type (
	Repository interface {
		// CreateCredentials returns ErrEmailExists when the email is taken.
		CreateCredentials(ctx context.Context, cred Credentials, exec ...core.DBExecutor) (Credentials, error)
		GetCredentials(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Credentials, error)
		UpdateCredentials(ctx context.Context, cred Credentials, exec ...core.DBExecutor) (Credentials, error)

		CreateProfile(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetProfile(ctx context.Context, id string, exec ...core.DBExecutor) (User, error)
	}

	Service interface {
		Configured() bool
		Register(ctx context.Context, ru RegisterUser) (Registration, error)
		Authenticate(ctx context.Context, email, password string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		SetLastLogin(ctx context.Context, usr User) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
		// EnsureVerifiedUser creates or updates confirmed credentials and adds the profile if missing.
		EnsureVerifiedUser(ctx context.Context, email, password, name string) (User, bool, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	secretKey = []byte(conf.SecretKey)
	if conf.PasswordResetTimeoutDelta > 0 {
		passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	}
	return &service{db: db, repo: repo, mailSvc: mailSvc, conf: conf}
}

// Configured reports whether self-registration is available.
func (svc *service) Configured() bool {
	return svc.conf.RegistrationEnabled && svc.repo != nil
}

// Register creates auto-confirmed credentials then a technician profile.
// A profile failure does not fail the registration.
func (svc *service) Register(ctx context.Context, ru RegisterUser) (Registration, error) {
	if !svc.Configured() {
		return Registration{}, ErrRegistrationDisabled
	}

	now := nowFunc().UTC()
	localPart := core.EmailLocalPart(ru.Email)
	fullName := ru.Name
	if fullName == "" {
		fullName = localPart
	}

	cred := Credentials{
		ID:        uuid.NewString(),
		Email:     ru.Email,
		FullName:  fullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cred.Confirm(now)
	if err := cred.SetPassword(ru.Password); err != nil {
		return Registration{}, errors.Wrap(err, "hashing password")
	}

	cred, err := svc.repo.CreateCredentials(ctx, cred)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return Registration{}, core.NewConflictError(errEmailRegistered)
		}
		return Registration{}, errors.Wrap(err, "creating credentials")
	}

	reg := Registration{
		User: RegisteredUser{ID: cred.ID, Email: cred.Email, Name: ru.Name},
	}
	if _, err = svc.createProfile(ctx, cred, fullName); err != nil {
		reg.Warning = profileWarning
	}
	return reg, nil
}

func (svc *service) createProfile(ctx context.Context, cred Credentials, name string, exec ...core.DBExecutor) (User, error) {
	now := nowFunc().UTC()
	return svc.repo.CreateProfile(ctx, User{
		ID:        cred.ID,
		Username:  core.EmailLocalPart(cred.Email),
		Email:     cred.Email,
		Name:      name,
		Role:      RoleTechnician,
		CreatedAt: now,
		UpdatedAt: now,
	}, exec...)
}

// Authenticate checks the password of confirmed credentials and returns the matching profile.
func (svc *service) Authenticate(ctx context.Context, email, password string) (User, error) {
	cred, err := svc.repo.GetCredentials(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err = cred.CheckPassword(password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !cred.IsConfirmed() {
		return User{}, ErrEmailNotConfirmed
	}

	usr, err := svc.repo.GetProfile(ctx, cred.ID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrProfileNotFound
		}
		return User{}, err
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetProfile(ctx, id)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) error {
	cred, err := svc.repo.GetCredentials(ctx, GetFilter{ID: usr.ID})
	if err != nil {
		return err
	}
	now := nowFunc().UTC()
	cred.LastLogin = &now
	cred.UpdatedAt = now
	_, err = svc.repo.UpdateCredentials(ctx, cred)
	return err
}

// RequestPasswordReset mails a reset link to the owner of email in the background.
// Unknown emails are ignored.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	cred, err := svc.getResetCredentials(ctx, email)
	if err != nil || cred == nil {
		return err
	}
	go svc.sendPasswordResetMail(*cred)
	return nil
}

func (svc *service) getResetCredentials(ctx context.Context, email string) (*Credentials, error) {
	cred, err := svc.repo.GetCredentials(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (svc *service) sendPasswordResetMail(cred Credentials) {
	name := cred.FullName
	if name == "" {
		name = core.EmailLocalPart(cred.Email)
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:              []mail.Address{{Name: name, Address: cred.Email}},
		Subject:         "Password Reset",
		TemplateName:    "password_reset",
		FrontendBaseURL: svc.conf.FrontendBaseURL,
		TemplateData: map[string]interface{}{
			"Name":  name,
			"UID":   encodeUID(cred),
			"Token": makeToken(cred),
		},
	})
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return ErrInvalidResetLink
	}
	cred, err := svc.repo.GetCredentials(ctx, GetFilter{ID: id})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return ErrInvalidResetLink
		}
		return err
	}
	if err = verifyToken(cred, rp.Token); err != nil {
		return ErrInvalidResetLink
	}

	if err = cred.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	cred.UpdatedAt = nowFunc().UTC()
	_, err = svc.repo.UpdateCredentials(ctx, cred)
	return err
}

func (svc *service) EnsureVerifiedUser(ctx context.Context, email, password, name string) (usr User, created bool, err error) {
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	if name == "" {
		name = core.EmailLocalPart(email)
	}

	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return User{}, false, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := nowFunc().UTC()
	cred, err := svc.repo.GetCredentials(ctx, GetFilter{Email: email}, tx)
	switch {
	case err == nil:
	case errors.Cause(err) == ErrNotFound:
		created = true
		cred = Credentials{ID: uuid.NewString(), Email: email, CreatedAt: now}
	default:
		return User{}, false, err
	}

	cred.FullName = name
	cred.UpdatedAt = now
	cred.Confirm(now)
	if err = cred.SetPassword(password); err != nil {
		return User{}, false, errors.Wrap(err, "hashing password")
	}
	if created {
		cred, err = svc.repo.CreateCredentials(ctx, cred, tx)
	} else {
		cred, err = svc.repo.UpdateCredentials(ctx, cred, tx)
	}
	if err != nil {
		return User{}, false, err
	}

	usr, err = svc.repo.GetProfile(ctx, cred.ID, tx)
	if errors.Cause(err) == ErrNotFound {
		usr, err = svc.createProfile(ctx, cred, name, tx)
	}
	if err != nil {
		return User{}, false, err
	}

	if err = tx.Commit(); err != nil {
		return User{}, false, errors.Wrap(err, "committing transaction")
	}
	return usr, created, nil
}
