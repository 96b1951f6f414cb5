package asset

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound            = errors.New("asset not found")
	ErrMaintenanceNotFound = errors.New("maintenance record not found")
	ErrNoPhotoStore        = errors.New("photo storage is not configured")
)

// recentActivityLimit is the number of maintenance records shown on the dashboard.
const recentActivityLimit = 5

type (
	Repository interface {
		CountAssets(ctx context.Context) (int, error)
		CreateAsset(ctx context.Context, a Asset) (Asset, error)
		QueryAssets(ctx context.Context, ordering []core.DBOrdering) ([]Asset, error)
		GetAsset(ctx context.Context, filter GetFilter) (Asset, error)

		CreateMaintenance(ctx context.Context, rec MaintenanceRecord) (MaintenanceRecord, error)
		GetMaintenance(ctx context.Context, id string) (MaintenanceRecord, error)
		UpdateMaintenance(ctx context.Context, rec MaintenanceRecord) (MaintenanceRecord, error)
		// QueryMaintenance returns records joined with their asset & technician,
		// ordered by ordering (maintenance_date desc by default).
		QueryMaintenance(ctx context.Context, filter HistoryFilter, ordering []core.DBOrdering) ([]MaintenanceRecord, error)
		CountMaintenance(ctx context.Context, filter CountFilter) (int, error)

		CreatePhoto(ctx context.Context, p Photo) (Photo, error)
		QueryPhotos(ctx context.Context, assetID string) ([]Photo, error)
	}

	// PhotoStore is the object storage holding maintenance photos.
	PhotoStore interface {
		Put(ctx context.Context, objectPath, contentType string, data []byte) error
		URL(objectPath string) string
	}

	Service interface {
		Query(ctx context.Context, ordering []core.DBOrdering) ([]Asset, error)
		GetByID(ctx context.Context, id string) (Asset, error)
		GetByCode(ctx context.Context, code string) (Asset, error)
		GetDetail(ctx context.Context, id string) (Detail, error)
		RecordMaintenance(ctx context.Context, nm NewMaintenance, uploads []Upload) (MaintenanceRecord, []Photo, error)
		History(ctx context.Context, filter HistoryFilter, ordering []core.DBOrdering) ([]MaintenanceRecord, error)
		UpdateStatus(ctx context.Context, id string, us UpdateStatus) (MaintenanceRecord, error)
		Dashboard(ctx context.Context) (DashboardStats, error)
		ExportHistory(ctx context.Context, filter HistoryFilter, w io.Writer) error
		Seed(ctx context.Context, samples []Asset) (int, error)
	}

	service struct {
		repo   Repository
		photos PhotoStore
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, photos PhotoStore) Service {
	return &service{repo: repo, photos: photos}
}

func (svc *service) Query(ctx context.Context, ordering []core.DBOrdering) ([]Asset, error) {
	return svc.repo.QueryAssets(ctx, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Asset, error) {
	return svc.repo.GetAsset(ctx, GetFilter{ID: id})
}

// GetByCode looks an asset up by its exact code.
func (svc *service) GetByCode(ctx context.Context, code string) (Asset, error) {
	if code == "" {
		return Asset{}, ErrNotFound
	}
	return svc.repo.GetAsset(ctx, GetFilter{Code: code})
}

func (svc *service) GetDetail(ctx context.Context, id string) (Detail, error) {
	a, err := svc.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	history, err := svc.repo.QueryMaintenance(ctx, HistoryFilter{AssetID: a.ID}, nil)
	if err != nil {
		return Detail{}, errors.Wrap(err, "querying maintenance history")
	}
	photos, err := svc.repo.QueryPhotos(ctx, a.ID)
	if err != nil {
		return Detail{}, errors.Wrap(err, "querying photos")
	}
	if history == nil {
		history = []MaintenanceRecord{}
	}
	if photos == nil {
		photos = []Photo{}
	}
	return Detail{Asset: a, History: history, Photos: photos}, nil
}

// RecordMaintenance stores a pending maintenance record, then uploads every photo
// (with its thumbnail) under "{recordId}/" and links it to the asset.
func (svc *service) RecordMaintenance(ctx context.Context, nm NewMaintenance, uploads []Upload) (MaintenanceRecord, []Photo, error) {
	for i := range uploads {
		if err := uploads[i].check(); err != nil {
			return MaintenanceRecord{}, nil, err
		}
	}
	if len(uploads) > 0 && svc.photos == nil {
		return MaintenanceRecord{}, nil, ErrNoPhotoStore
	}

	a, err := svc.GetByID(ctx, nm.AssetID)
	if err != nil {
		return MaintenanceRecord{}, nil, err
	}

	now := nowFunc().UTC()
	rec := MaintenanceRecord{
		ID:              uuid.NewString(),
		AssetID:         a.ID,
		MaintenanceType: MaintenanceType(nm.MaintenanceType),
		Description:     nm.Description,
		MaintenanceDate: nm.MaintenanceDate,
		Status:          MaintenancePending,
		VerificationID:  nm.VerificationID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if nm.TechnicianID != "" {
		techID := nm.TechnicianID
		rec.TechnicianID = &techID
	}
	rec, err = svc.repo.CreateMaintenance(ctx, rec)
	if err != nil {
		return MaintenanceRecord{}, nil, errors.Wrap(err, "creating maintenance record")
	}

	photos := make([]Photo, 0, len(uploads))
	for _, up := range uploads {
		p, err := svc.storePhoto(ctx, rec, up)
		if err != nil {
			return rec, photos, err
		}
		photos = append(photos, p)
	}
	return rec, photos, nil
}

func (svc *service) storePhoto(ctx context.Context, rec MaintenanceRecord, up Upload) (Photo, error) {
	name := uuid.NewString()
	objectPath := rec.ID + "/" + name + "." + up.ext()
	if err := svc.photos.Put(ctx, objectPath, up.ContentType, up.Data); err != nil {
		return Photo{}, errors.Wrap(err, "uploading photo")
	}

	thumb, err := makeThumbnail(up.Data)
	if err != nil {
		return Photo{}, errors.Wrap(err, "making thumbnail")
	}
	if err := svc.photos.Put(ctx, rec.ID+"/thumbnails/"+name+".jpg", "image/jpeg", thumb); err != nil {
		return Photo{}, errors.Wrap(err, "uploading thumbnail")
	}

	photoType := PhotoTypeMaintenance
	p, err := svc.repo.CreatePhoto(ctx, Photo{
		ID:        uuid.NewString(),
		AssetID:   rec.AssetID,
		PhotoURL:  svc.photos.URL(objectPath),
		PhotoType: &photoType,
		CreatedAt: nowFunc().UTC(),
	})
	if err != nil {
		return Photo{}, errors.Wrap(err, "creating photo")
	}
	return p, nil
}

func (svc *service) History(ctx context.Context, filter HistoryFilter, ordering []core.DBOrdering) ([]MaintenanceRecord, error) {
	filter.Clean()
	return svc.repo.QueryMaintenance(ctx, filter, ordering)
}

// UpdateStatus changes the status of a maintenance record. Completing a record stamps
// today unless a completion date is given; any other status clears it.
func (svc *service) UpdateStatus(ctx context.Context, id string, us UpdateStatus) (MaintenanceRecord, error) {
	rec, err := svc.repo.GetMaintenance(ctx, id)
	if err != nil {
		return MaintenanceRecord{}, err
	}

	now := nowFunc().UTC()
	rec.Status = MaintenanceStatus(us.Status)
	rec.CompletionDate = nil
	if rec.Status == MaintenanceCompleted {
		date := us.CompletionDate
		if date == "" {
			date = core.FormatDate(now)
		}
		rec.CompletionDate = &date
	}
	rec.UpdatedAt = now
	return svc.repo.UpdateMaintenance(ctx, rec)
}

func (svc *service) Dashboard(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	var err error

	if stats.TotalAssets, err = svc.repo.CountAssets(ctx); err != nil {
		return DashboardStats{}, errors.Wrap(err, "counting assets")
	}
	if stats.PendingMaintenance, err = svc.repo.CountMaintenance(ctx, CountFilter{Status: MaintenancePending}); err != nil {
		return DashboardStats{}, errors.Wrap(err, "counting pending maintenance")
	}
	today := core.FormatDate(nowFunc())
	if stats.CompletedToday, err = svc.repo.CountMaintenance(ctx, CountFilter{Status: MaintenanceCompleted, CompletedFrom: today}); err != nil {
		return DashboardStats{}, errors.Wrap(err, "counting completed maintenance")
	}

	recent, err := svc.repo.QueryMaintenance(
		ctx,
		HistoryFilter{Limit: recentActivityLimit},
		[]core.DBOrdering{{Field: "created_at"}},
	)
	if err != nil {
		return DashboardStats{}, errors.Wrap(err, "querying recent activity")
	}
	stats.RecentActivity = make([]Activity, 0, len(recent))
	for _, rec := range recent {
		act := Activity{
			ID:              rec.ID,
			MaintenanceType: rec.MaintenanceType,
			Status:          rec.Status,
			CreatedAt:       rec.CreatedAt,
		}
		if rec.Asset != nil {
			act.AssetCode = rec.Asset.Code
			act.AssetName = rec.Asset.Name
		}
		stats.RecentActivity = append(stats.RecentActivity, act)
	}
	return stats, nil
}

// Seed inserts samples when there are no assets yet. It returns the number of inserted assets.
func (svc *service) Seed(ctx context.Context, samples []Asset) (int, error) {
	count, err := svc.repo.CountAssets(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "counting assets")
	}
	if count > 0 {
		return 0, nil
	}

	now := nowFunc().UTC()
	for i, a := range samples {
		a.ID = uuid.NewString()
		if a.Status == "" {
			a.Status = StatusActive
		}
		a.CreatedAt = now
		a.UpdatedAt = now
		if _, err := svc.repo.CreateAsset(ctx, a); err != nil {
			return i, errors.Wrapf(err, "creating asset %s", a.Code)
		}
	}
	return len(samples), nil
}
