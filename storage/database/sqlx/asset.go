package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
)

const (
	assetColumns = "id, code, name, category, location, status, purchase_date, specification, created_at, updated_at"
	photoColumns = "id, asset_id, photo_url, photo_type, created_at"
)

var (
	assetOrderings = map[string]string{
		"code":       "code",
		"name":       "name",
		"category":   "category",
		"location":   "location",
		"status":     "status",
		"created_at": "created_at",
	}
	maintenanceOrderings = map[string]string{
		"maintenance_date": "m.maintenance_date",
		"created_at":       "m.created_at",
		"status":           "m.status",
		"type":             "m.maintenance_type",
		"asset_code":       "a.code",
	}
)

// maintenanceRow is a maintenance record joined with its asset & technician.
type maintenanceRow struct {
	asset.MaintenanceRecord
	AssetName      *string `db:"asset_name"`
	AssetCode      *string `db:"asset_code"`
	TechnicianName *string `db:"technician_name"`
}

func (row maintenanceRow) record() asset.MaintenanceRecord {
	rec := row.MaintenanceRecord
	if row.AssetCode != nil {
		rec.Asset = &asset.Summary{Code: *row.AssetCode}
		if row.AssetName != nil {
			rec.Asset.Name = *row.AssetName
		}
	}
	if row.TechnicianName != nil {
		rec.Technician = &asset.Technician{Name: *row.TechnicianName}
	}
	return rec
}

type assetRepository struct {
	exec core.DBExecutor
}

var _ asset.Repository = (*assetRepository)(nil) // interface compliance check

func NewAssetRepository(exec core.DBExecutor) *assetRepository {
	return &assetRepository{exec: exec}
}

func (repo assetRepository) CountAssets(ctx context.Context) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, repo.exec, &count, `SELECT COUNT(*) FROM assets`); err != nil {
		return 0, errors.Wrap(err, "counting assets")
	}
	return count, nil
}

func (repo assetRepository) CreateAsset(ctx context.Context, a asset.Asset) (asset.Asset, error) {
	q := repo.exec.Rebind(`INSERT INTO assets (` + assetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := repo.exec.ExecContext(ctx, q,
		a.ID, a.Code, a.Name, a.Category, a.Location, a.Status,
		a.PurchaseDate, a.Specification, a.CreatedAt, a.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return asset.Asset{}, core.NewConflictError(errors.Errorf("asset with code %q already exists", a.Code))
		}
		return asset.Asset{}, errors.Wrap(err, "inserting asset")
	}
	return a, nil
}

func (repo assetRepository) QueryAssets(ctx context.Context, ordering []core.DBOrdering) ([]asset.Asset, error) {
	orderBy := core.OrderByClause(ordering, assetOrderings, "code ASC")
	assets := make([]asset.Asset, 0)
	if err := sqlx.SelectContext(ctx, repo.exec, &assets, `SELECT `+assetColumns+` FROM assets ORDER BY `+orderBy); err != nil {
		return nil, errors.Wrap(err, "querying assets")
	}
	return assets, nil
}

func (repo assetRepository) GetAsset(ctx context.Context, filter asset.GetFilter) (asset.Asset, error) {
	var (
		where string
		arg   string
	)
	switch {
	case filter.ID != "":
		where, arg = "id = ?", filter.ID
	case filter.Code != "":
		where, arg = "code = ?", filter.Code
	default:
		return asset.Asset{}, asset.ErrNotFound
	}

	var a asset.Asset
	q := repo.exec.Rebind(`SELECT ` + assetColumns + ` FROM assets WHERE ` + where)
	if err := sqlx.GetContext(ctx, repo.exec, &a, q, arg); err != nil {
		return asset.Asset{}, trapNoRowsErr(err, asset.ErrNotFound, "fetching asset")
	}
	return a, nil
}

func (repo assetRepository) CreateMaintenance(ctx context.Context, rec asset.MaintenanceRecord) (asset.MaintenanceRecord, error) {
	q := repo.exec.Rebind(`
		INSERT INTO maintenance_records (
			id, asset_id, technician_id, maintenance_type, description, maintenance_date,
			completion_date, status, verification_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := repo.exec.ExecContext(ctx, q,
		rec.ID, rec.AssetID, rec.TechnicianID, rec.MaintenanceType, rec.Description, rec.MaintenanceDate,
		rec.CompletionDate, rec.Status, rec.VerificationID, rec.CreatedAt, rec.UpdatedAt); err != nil {
		return asset.MaintenanceRecord{}, errors.Wrap(err, "inserting maintenance record")
	}
	return rec, nil
}

const maintenanceSelect = `
	SELECT
		m.id, m.asset_id, m.technician_id, m.maintenance_type, m.description, m.maintenance_date,
		m.completion_date, m.status, m.verification_id, m.created_at, m.updated_at,
		a.name AS asset_name, a.code AS asset_code, u.name AS technician_name
	FROM maintenance_records m
	LEFT JOIN assets a ON a.id = m.asset_id
	LEFT JOIN users u ON u.id = m.technician_id`

func (repo assetRepository) GetMaintenance(ctx context.Context, id string) (asset.MaintenanceRecord, error) {
	var row maintenanceRow
	q := repo.exec.Rebind(maintenanceSelect + ` WHERE m.id = ?`)
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, id); err != nil {
		return asset.MaintenanceRecord{}, trapNoRowsErr(err, asset.ErrMaintenanceNotFound, "fetching maintenance record")
	}
	return row.record(), nil
}

func (repo assetRepository) UpdateMaintenance(ctx context.Context, rec asset.MaintenanceRecord) (asset.MaintenanceRecord, error) {
	q := repo.exec.Rebind(`
		UPDATE maintenance_records
		SET status = ?, completion_date = ?, description = ?, updated_at = ?
		WHERE id = ?`)
	res, err := repo.exec.ExecContext(ctx, q, rec.Status, rec.CompletionDate, rec.Description, rec.UpdatedAt, rec.ID)
	if err != nil {
		return asset.MaintenanceRecord{}, errors.Wrap(err, "updating maintenance record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return asset.MaintenanceRecord{}, asset.ErrMaintenanceNotFound
	}
	return rec, nil
}

func (repo assetRepository) QueryMaintenance(ctx context.Context, filter asset.HistoryFilter, ordering []core.DBOrdering) ([]asset.MaintenanceRecord, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.AssetID != "" {
		conds = append(conds, "m.asset_id = ?")
		args = append(args, filter.AssetID)
	}
	if filter.Type != "" {
		conds = append(conds, "m.maintenance_type = ?")
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conds = append(conds, "m.status = ?")
		args = append(args, filter.Status)
	}

	q := maintenanceSelect
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY ` + core.OrderByClause(ordering, maintenanceOrderings, "m.maintenance_date DESC") + `, m.created_at DESC`
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var rows []maintenanceRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying maintenance records")
	}
	records := make([]asset.MaintenanceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

func (repo assetRepository) CountMaintenance(ctx context.Context, filter asset.CountFilter) (int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.CompletedFrom != "" {
		conds = append(conds, "completion_date >= ?")
		args = append(args, filter.CompletedFrom)
	}

	q := `SELECT COUNT(*) FROM maintenance_records`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	var count int
	if err := sqlx.GetContext(ctx, repo.exec, &count, repo.exec.Rebind(q), args...); err != nil {
		return 0, errors.Wrap(err, "counting maintenance records")
	}
	return count, nil
}

func (repo assetRepository) CreatePhoto(ctx context.Context, p asset.Photo) (asset.Photo, error) {
	q := repo.exec.Rebind(`INSERT INTO asset_photos (` + photoColumns + `) VALUES (?, ?, ?, ?, ?)`)
	if _, err := repo.exec.ExecContext(ctx, q, p.ID, p.AssetID, p.PhotoURL, p.PhotoType, p.CreatedAt); err != nil {
		return asset.Photo{}, errors.Wrap(err, "inserting photo")
	}
	return p, nil
}

func (repo assetRepository) QueryPhotos(ctx context.Context, assetID string) ([]asset.Photo, error) {
	photos := make([]asset.Photo, 0)
	q := repo.exec.Rebind(`SELECT ` + photoColumns + ` FROM asset_photos WHERE asset_id = ? ORDER BY created_at DESC`)
	if err := sqlx.SelectContext(ctx, repo.exec, &photos, q, assetID); err != nil {
		return nil, errors.Wrap(err, "querying photos")
	}
	return photos, nil
}
