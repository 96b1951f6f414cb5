package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/user"
)

const (
	credentialsColumns = "id, email, password_hash, full_name, email_confirmed_at, created_at, updated_at, last_login"
	profileColumns     = "id, username, email, name, role, created_at, updated_at"
)

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) CreateCredentials(ctx context.Context, cred user.Credentials, exec ...core.DBExecutor) (user.Credentials, error) {
	db := getExec(repo.exec, exec)
	q := db.Rebind(`INSERT INTO auth_users (` + credentialsColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := db.ExecContext(ctx, q,
		cred.ID, cred.Email, string(cred.PasswordHash), cred.FullName,
		cred.EmailConfirmedAt, cred.CreatedAt, cred.UpdatedAt, cred.LastLogin)
	if err != nil {
		if isUniqueViolation(err) {
			return user.Credentials{}, user.ErrEmailExists
		}
		return user.Credentials{}, errors.Wrap(err, "inserting credentials")
	}
	return cred, nil
}

func (repo userRepository) GetCredentials(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.Credentials, error) {
	db := getExec(repo.exec, exec)
	var (
		where string
		arg   string
	)
	switch {
	case filter.ID != "":
		where, arg = "id = ?", filter.ID
	case filter.Email != "":
		where, arg = "email = ?", filter.Email
	default:
		return user.Credentials{}, user.ErrNotFound
	}

	var cred user.Credentials
	q := db.Rebind(`SELECT ` + credentialsColumns + ` FROM auth_users WHERE ` + where)
	if err := sqlx.GetContext(ctx, db, &cred, q, arg); err != nil {
		return user.Credentials{}, trapNoRowsErr(err, user.ErrNotFound, "fetching credentials")
	}
	return cred, nil
}

func (repo userRepository) UpdateCredentials(ctx context.Context, cred user.Credentials, exec ...core.DBExecutor) (user.Credentials, error) {
	db := getExec(repo.exec, exec)
	q := db.Rebind(`
		UPDATE auth_users
		SET password_hash = ?, full_name = ?, email_confirmed_at = ?, updated_at = ?, last_login = ?
		WHERE id = ?`)
	res, err := db.ExecContext(ctx, q,
		string(cred.PasswordHash), cred.FullName, cred.EmailConfirmedAt, cred.UpdatedAt, cred.LastLogin, cred.ID)
	if err != nil {
		return user.Credentials{}, errors.Wrap(err, "updating credentials")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.Credentials{}, user.ErrNotFound
	}
	return cred, nil
}

func (repo userRepository) CreateProfile(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	db := getExec(repo.exec, exec)
	q := db.Rebind(`INSERT INTO users (` + profileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := db.ExecContext(ctx, q,
		usr.ID, usr.Username, usr.Email, usr.Name, usr.Role, usr.CreatedAt, usr.UpdatedAt); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user profile")
	}
	return usr, nil
}

func (repo userRepository) GetProfile(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	db := getExec(repo.exec, exec)
	var usr user.User
	q := db.Rebind(`SELECT ` + profileColumns + ` FROM users WHERE id = ?`)
	if err := sqlx.GetContext(ctx, db, &usr, q, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "fetching user profile")
	}
	return usr, nil
}
