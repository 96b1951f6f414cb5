// Package testutil holds helpers shared by the integration tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/user"
	"github.com/topsell/tams/storage/database"
)

// NewConf returns the configuration used by tests.
func NewConf() *core.Config {
	conf := new(core.Config)
	conf.AppName = "TAMS Test"
	conf.Env = "TEST"
	conf.TestMode = true
	conf.SecretKey = "test-secret"
	conf.FrontendBaseURL = "http://tams.test"
	conf.RegistrationEnabled = true
	conf.PasswordResetTimeoutDelta = 3 * 24 * time.Hour
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = 30 * time.Minute
	conf.Database.Engine = database.EngineSQLite
	conf.Storage.Provider = "local"
	conf.Storage.PublicBaseURL = "http://tams.test/media"
	return conf
}

// PrepareDB opens a migrated sqlite database living in the test's temp dir.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "tams.db"))
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// CreateUser creates confirmed credentials and a profile with the given role.
func CreateUser(t *testing.T, repo user.Repository, email, pwd, name, role string) user.User {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	cred := user.Credentials{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cred.Confirm(now)
	if err := cred.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if _, err := repo.CreateCredentials(ctx, cred); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	usr, err := repo.CreateProfile(ctx, user.User{
		ID:        cred.ID,
		Username:  core.EmailLocalPart(email),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateAsset inserts an active asset.
func CreateAsset(t *testing.T, repo asset.Repository, code, name string, spec ...asset.Specification) asset.Asset {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	a := asset.Asset{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		Category:  "HVAC",
		Location:  "Head Office",
		Status:    asset.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(spec) > 0 {
		a.Specification = spec[0]
	}
	a, err := repo.CreateAsset(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAsset() failed: %v", err)
	}
	return a
}
