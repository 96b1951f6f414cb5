package asset

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusMaintenance Status = "maintenance"
	StatusDisposed    Status = "disposed"
)

type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
)

type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
)

// PhotoTypeMaintenance tags photos taken as maintenance evidence.
const PhotoTypeMaintenance = "maintenance"

// Specification is free-form technical data stored as a JSON document.
type Specification map[string]interface{}

func (s Specification) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Specification) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.Errorf("unsupported specification type %T", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(raw, s)
}

type Asset struct {
	ID            string        `json:"id" db:"id"`
	Code          string        `json:"code" db:"code"`
	Name          string        `json:"name" db:"name"`
	Category      string        `json:"category" db:"category"`
	Location      string        `json:"location" db:"location"`
	Status        Status        `json:"status" db:"status"`
	PurchaseDate  *string       `json:"purchase_date" db:"purchase_date"`
	Specification Specification `json:"specification" db:"specification"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"` // UTC
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"` // UTC
}

// Summary is the asset part joined onto maintenance records.
type Summary struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type Technician struct {
	Name string `json:"name"`
}

type MaintenanceRecord struct {
	ID              string            `json:"id" db:"id"`
	AssetID         string            `json:"asset_id" db:"asset_id"`
	TechnicianID    *string           `json:"technician_id" db:"technician_id"`
	MaintenanceType MaintenanceType   `json:"maintenance_type" db:"maintenance_type"`
	Description     string            `json:"description" db:"description"`
	MaintenanceDate string            `json:"maintenance_date" db:"maintenance_date"`
	CompletionDate  *string           `json:"completion_date" db:"completion_date"`
	Status          MaintenanceStatus `json:"status" db:"status"`
	VerificationID  string            `json:"verification_id" db:"verification_id"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"` // UTC
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"` // UTC

	Technician *Technician `json:"technician,omitempty" db:"-"`
	Asset      *Summary    `json:"asset,omitempty" db:"-"`
}

type Photo struct {
	ID        string    `json:"id" db:"id"`
	AssetID   string    `json:"asset_id" db:"asset_id"`
	PhotoURL  string    `json:"photo_url" db:"photo_url"`
	PhotoType *string   `json:"photo_type" db:"photo_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// Detail is an asset with its maintenance history, most recent first.
type Detail struct {
	Asset
	History []MaintenanceRecord `json:"history"`
	Photos  []Photo             `json:"photos"`
}

// NewMaintenance contains information needed to record maintenance on an asset.
type NewMaintenance struct {
	AssetID         string `json:"-" form:"-"`
	TechnicianID    string `json:"-" form:"-"`
	MaintenanceType string `json:"maintenance_type" form:"maintenance_type" validate:"required,oneof=preventive corrective"`
	Description     string `json:"description" form:"description" validate:"required,notblank"`
	MaintenanceDate string `json:"maintenance_date" form:"maintenance_date" validate:"required,datetime=2006-01-02"`
	VerificationID  string `json:"verification_id" form:"verification_id" validate:"omitempty,max=64"`
}

func (nm *NewMaintenance) Validate(validate *validator.Validate) error {
	nm.MaintenanceType = core.CleanString(nm.MaintenanceType, true /* lower */)
	nm.Description = core.CleanString(nm.Description)
	nm.MaintenanceDate = core.CleanString(nm.MaintenanceDate)
	nm.VerificationID = core.CleanString(nm.VerificationID)
	return validate.Struct(nm)
}

// UpdateStatus moves a maintenance record through its workflow.
type UpdateStatus struct {
	Status         string `json:"status" validate:"required,oneof=pending in_progress completed"`
	CompletionDate string `json:"completion_date" validate:"omitempty,datetime=2006-01-02"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	us.CompletionDate = core.CleanString(us.CompletionDate)
	return validate.Struct(us)
}

// HistoryFilter narrows maintenance history. Empty or "all" values do not filter.
type HistoryFilter struct {
	AssetID string `query:"-"`
	Type    string `query:"type"`
	Status  string `query:"status"`
	Limit   int    `query:"-"`
}

func (f *HistoryFilter) Clean() {
	f.Type = core.CleanString(f.Type, true /* lower */)
	if f.Type == "all" {
		f.Type = ""
	}
	f.Status = core.CleanString(f.Status, true /* lower */)
	if f.Status == "all" {
		f.Status = ""
	}
}

type Activity struct {
	ID              string            `json:"id"`
	AssetCode       string            `json:"asset_code"`
	AssetName       string            `json:"asset_name"`
	MaintenanceType MaintenanceType   `json:"maintenance_type"`
	Status          MaintenanceStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

type DashboardStats struct {
	TotalAssets        int        `json:"total_assets"`
	PendingMaintenance int        `json:"pending_maintenance"`
	CompletedToday     int        `json:"completed_today"`
	RecentActivity     []Activity `json:"recent_activity"`
}

// GetFilter selects a single asset by ID or by exact code.
type GetFilter struct {
	ID   string
	Code string
}

// CountFilter narrows maintenance counts.
type CountFilter struct {
	Status        MaintenanceStatus
	CompletedFrom string // completion_date >= CompletedFrom
}
