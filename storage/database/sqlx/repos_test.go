package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/user"
	"github.com/topsell/tams/tests"
)

func strPtr(s string) *string { return &s }

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := NewUserRepository(db)

	usr := testutil.CreateUser(t, repo, "budi@topsell.co.id", "rahasia", "Budi", user.RoleTechnician)

	t.Run("get credentials", func(t *testing.T) {
		byEmail, err := repo.GetCredentials(ctx, user.GetFilter{Email: "budi@topsell.co.id"})
		require.NoError(t, err)
		assert.Equal(t, usr.ID, byEmail.ID)
		assert.True(t, byEmail.IsConfirmed())
		assert.Nil(t, byEmail.LastLogin)
		assert.NoError(t, byEmail.CheckPassword("rahasia"))

		byID, err := repo.GetCredentials(ctx, user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.Equal(t, "budi@topsell.co.id", byID.Email)

		_, err = repo.GetCredentials(ctx, user.GetFilter{Email: "nobody@topsell.co.id"})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetCredentials(ctx, user.GetFilter{})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		now := time.Now().UTC()
		_, err := repo.CreateCredentials(ctx, user.Credentials{
			ID: "dup", Email: "budi@topsell.co.id", PasswordHash: []byte("x"), CreatedAt: now, UpdatedAt: now,
		})
		assert.Equal(t, user.ErrEmailExists, err)
	})

	t.Run("update credentials", func(t *testing.T) {
		cred, err := repo.GetCredentials(ctx, user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		now := time.Now().UTC()
		cred.LastLogin = &now
		cred.FullName = "Budi Santoso"
		require.NoError(t, cred.SetPassword("baru123"))
		_, err = repo.UpdateCredentials(ctx, cred)
		require.NoError(t, err)

		got, err := repo.GetCredentials(ctx, user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.Equal(t, "Budi Santoso", got.FullName)
		require.NotNil(t, got.LastLogin)
		assert.NoError(t, got.CheckPassword("baru123"))

		_, err = repo.UpdateCredentials(ctx, user.Credentials{ID: "missing"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("profile", func(t *testing.T) {
		got, err := repo.GetProfile(ctx, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, "budi", got.Username)
		assert.Equal(t, user.RoleTechnician, got.Role)

		_, err = repo.GetProfile(ctx, "missing")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("transaction", func(t *testing.T) {
		tx, err := db.BeginTxx(ctx, nil)
		require.NoError(t, err)
		now := time.Now().UTC()
		_, err = repo.CreateCredentials(ctx, user.Credentials{
			ID: "tx-user", Email: "tx@topsell.co.id", PasswordHash: []byte("x"), CreatedAt: now, UpdatedAt: now,
		}, tx)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())

		_, err = repo.GetCredentials(ctx, user.GetFilter{ID: "tx-user"})
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestAssetRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	usrRepo := NewUserRepository(db)
	repo := NewAssetRepository(db)

	tech := testutil.CreateUser(t, usrRepo, "budi@topsell.co.id", "rahasia", "Budi", user.RoleTechnician)
	ac := testutil.CreateAsset(t, repo, "AST-001", "Air Conditioner Unit 1", asset.Specification{"brand": "Daikin", "pk": 2.0})
	genset := testutil.CreateAsset(t, repo, "AST-002", "Generator Set")

	t.Run("assets", func(t *testing.T) {
		count, err := repo.CountAssets(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		got, err := repo.GetAsset(ctx, asset.GetFilter{Code: "AST-001"})
		require.NoError(t, err)
		assert.Equal(t, ac.ID, got.ID)
		assert.Equal(t, "Daikin", got.Specification["brand"])
		assert.Equal(t, 2.0, got.Specification["pk"])

		got, err = repo.GetAsset(ctx, asset.GetFilter{ID: genset.ID})
		require.NoError(t, err)
		assert.Nil(t, got.Specification)

		_, err = repo.GetAsset(ctx, asset.GetFilter{Code: "ast-001"})
		assert.Equal(t, asset.ErrNotFound, err)

		all, err := repo.QueryAssets(ctx, []core.DBOrdering{{Field: "code"}})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "AST-002", all[0].Code)

		// unknown orderings fall back to code ascending
		all, err = repo.QueryAssets(ctx, []core.DBOrdering{{Field: "1; DROP TABLE assets"}})
		require.NoError(t, err)
		assert.Equal(t, "AST-001", all[0].Code)
	})

	t.Run("duplicate code", func(t *testing.T) {
		_, err := repo.CreateAsset(ctx, asset.Asset{ID: "x", Code: "AST-001", Name: "dup", Status: asset.StatusActive})
		var cerr *core.ConflictError
		assert.True(t, errors.As(err, &cerr))
	})

	t.Run("maintenance", func(t *testing.T) {
		now := time.Now().UTC()
		recs := []asset.MaintenanceRecord{
			{ID: "m1", AssetID: ac.ID, TechnicianID: &tech.ID, MaintenanceType: asset.MaintenancePreventive,
				Description: "filter cleaning", MaintenanceDate: "2024-05-01", Status: asset.MaintenancePending,
				VerificationID: "1-4", CreatedAt: now, UpdatedAt: now},
			{ID: "m2", AssetID: ac.ID, MaintenanceType: asset.MaintenanceCorrective,
				Description: "compressor", MaintenanceDate: "2024-05-03", Status: asset.MaintenanceCompleted,
				CompletionDate: strPtr("2024-05-04"), CreatedAt: now.Add(time.Second), UpdatedAt: now},
			{ID: "m3", AssetID: genset.ID, MaintenanceType: asset.MaintenancePreventive,
				Description: "oil change", MaintenanceDate: "2024-05-02", Status: asset.MaintenancePending,
				CreatedAt: now.Add(2 * time.Second), UpdatedAt: now},
		}
		for _, rec := range recs {
			_, err := repo.CreateMaintenance(ctx, rec)
			require.NoError(t, err)
		}

		history, err := repo.QueryMaintenance(ctx, asset.HistoryFilter{}, nil)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, []string{"m2", "m3", "m1"}, []string{history[0].ID, history[1].ID, history[2].ID})

		m1 := history[2]
		require.NotNil(t, m1.Technician)
		assert.Equal(t, "Budi", m1.Technician.Name)
		require.NotNil(t, m1.Asset)
		assert.Equal(t, "AST-001", m1.Asset.Code)
		assert.Equal(t, "1-4", m1.VerificationID)
		assert.Nil(t, history[0].Technician)

		filtered, err := repo.QueryMaintenance(ctx, asset.HistoryFilter{AssetID: ac.ID, Type: "preventive"}, nil)
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, "m1", filtered[0].ID)

		limited, err := repo.QueryMaintenance(ctx, asset.HistoryFilter{Limit: 1}, []core.DBOrdering{{Field: "created_at"}})
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, "m3", limited[0].ID)

		pending, err := repo.CountMaintenance(ctx, asset.CountFilter{Status: asset.MaintenancePending})
		require.NoError(t, err)
		assert.Equal(t, 2, pending)
		completed, err := repo.CountMaintenance(ctx, asset.CountFilter{CompletedFrom: "2024-05-04"})
		require.NoError(t, err)
		assert.Equal(t, 1, completed)

		rec, err := repo.GetMaintenance(ctx, "m1")
		require.NoError(t, err)
		rec.Status = asset.MaintenanceCompleted
		rec.CompletionDate = strPtr("2024-05-05")
		_, err = repo.UpdateMaintenance(ctx, rec)
		require.NoError(t, err)

		rec, err = repo.GetMaintenance(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, asset.MaintenanceCompleted, rec.Status)
		assert.Equal(t, "2024-05-05", *rec.CompletionDate)

		_, err = repo.GetMaintenance(ctx, "missing")
		assert.Equal(t, asset.ErrMaintenanceNotFound, err)
		_, err = repo.UpdateMaintenance(ctx, asset.MaintenanceRecord{ID: "missing"})
		assert.Equal(t, asset.ErrMaintenanceNotFound, err)
	})

	t.Run("photos", func(t *testing.T) {
		photoType := asset.PhotoTypeMaintenance
		_, err := repo.CreatePhoto(ctx, asset.Photo{
			ID: "p1", AssetID: ac.ID, PhotoURL: "http://tams.test/media/m1/a.jpg", PhotoType: &photoType, CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)

		photos, err := repo.QueryPhotos(ctx, ac.ID)
		require.NoError(t, err)
		require.Len(t, photos, 1)
		assert.Equal(t, "http://tams.test/media/m1/a.jpg", photos[0].PhotoURL)

		photos, err = repo.QueryPhotos(ctx, genset.ID)
		require.NoError(t, err)
		assert.Empty(t, photos)
	})
}

func TestRepositories_DBErrors(t *testing.T) {
	ctx := context.Background()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")

	dbErr := errors.New("connection reset by peer")
	usrRepo := NewUserRepository(db)
	assetRepo := NewAssetRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM auth_users WHERE email = \$1`).WillReturnError(dbErr)
	_, err = usrRepo.GetCredentials(ctx, user.GetFilter{Email: "budi@topsell.co.id"})
	assert.Equal(t, dbErr, errors.Cause(err))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assets`).WillReturnError(dbErr)
	_, err = assetRepo.CountAssets(ctx)
	assert.Equal(t, dbErr, errors.Cause(err))

	mock.ExpectQuery(`FROM maintenance_records m (.+) WHERE m.status = \$1 ORDER BY m.maintenance_date DESC`).
		WithArgs("pending").
		WillReturnError(dbErr)
	_, err = assetRepo.QueryMaintenance(ctx, asset.HistoryFilter{Status: "pending"}, nil)
	assert.Equal(t, dbErr, errors.Cause(err))

	mock.ExpectExec(`INSERT INTO asset_photos`).WillReturnError(dbErr)
	_, err = assetRepo.CreatePhoto(ctx, asset.Photo{ID: "p1"})
	assert.Equal(t, dbErr, errors.Cause(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
