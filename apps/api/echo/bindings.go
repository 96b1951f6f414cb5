package echoapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/user"
	"github.com/topsell/tams/core/verification"
)

var orderingParam = "ordering"

// Ordering binds the "ordering" query param: comma separated fields, "-" prefix for descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func bindHistoryFilter(ctx echo.Context) asset.HistoryFilter {
	return asset.HistoryFilter{
		Type:   ctx.QueryParam("type"),
		Status: ctx.QueryParam("status"),
	}
}

type (
	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
	}

	// LookupResponse is the envelope of single-asset lookups.
	LookupResponse struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data,omitempty"`
		Error   string      `json:"error,omitempty"`
	}

	RegisterResponse struct {
		Success bool                `json:"success"`
		Message string              `json:"message"`
		User    user.RegisteredUser `json:"user"`
		Warning string              `json:"warning,omitempty"`
	}

	StatusResponse struct {
		OK         bool `json:"ok"`
		Configured bool `json:"configured"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	MaintenanceResponse struct {
		Record asset.MaintenanceRecord `json:"record"`
		Photos []asset.Photo           `json:"photos"`
	}

	OptionsResponse struct {
		Options   []verification.Option   `json:"options"`
		Outlets   []verification.Outlet   `json:"outlets"`
		Divisions []verification.Division `json:"divisions"`
	}

	SuggestResponse struct {
		Suggestions []verification.Suggestion `json:"suggestions"`
	}

	// ResolveRequest sets the verification mode then applies the pick list value (select mode)
	// or the typed outlet & division (manual mode).
	ResolveRequest struct {
		Mode     verification.Mode `json:"mode"`
		Pair     *string           `json:"pair"`
		Outlet   *string           `json:"outlet"`
		Division *string           `json:"division"`
	}

	VerificationResponse struct {
		State   verification.State   `json:"state"`
		Result  verification.Result  `json:"result"`
		Context verification.Context `json:"context"`
	}
)

func (r *PasswordResetRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}
