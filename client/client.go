// Package client is the HTTP client of the TAMS API used by the technician CLI.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/scan"
	"github.com/topsell/tams/core/user"
)

var ErrNotAuthenticated = errors.New("not signed in")

// APIError is a non 2xx response of the API.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

type (
	StatusResponse struct {
		OK         bool `json:"ok"`
		Configured bool `json:"configured"`
	}

	registerResponse struct {
		Success bool                `json:"success"`
		Message string              `json:"message"`
		User    user.RegisteredUser `json:"user"`
		Warning string              `json:"warning"`
	}

	loginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	tokenResponse struct {
		Token string `json:"token"`
	}

	lookupResponse struct {
		Success bool        `json:"success"`
		Data    asset.Asset `json:"data"`
		Error   string      `json:"error"`
	}

	// MaintenanceResponse is a recorded maintenance with its uploaded photos.
	MaintenanceResponse struct {
		Record asset.MaintenanceRecord `json:"record"`
		Photos []asset.Photo           `json:"photos"`
	}

	// Photo is a maintenance photo to upload.
	Photo struct {
		Name   string
		Reader io.Reader
	}
)

type Client struct {
	http    *resty.Client
	session *Session
}

var _ scan.AssetFinder = (*Client)(nil)

// New returns a client of the API at baseURL (e.g. "http://localhost:8000/api")
// authenticating with the session token.
func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = NewSession(nil)
	}
	c := &Client{session: session}
	c.http = resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json").
		SetDisableWarn(true)
	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if token := c.session.Token(); token != "" {
			req.SetAuthToken(token)
		}
		return nil
	})
	return c
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// do sends req and decodes a JSON error body into an APIError.
func do(req *resty.Request, method, url string) (*resty.Response, error) {
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, url)
	}
	if resp.IsError() {
		return resp, parseError(resp)
	}
	return resp, nil
}

func parseError(resp *resty.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	body, ok := resp.Error().(*map[string]interface{})
	if !ok || body == nil {
		return apiErr
	}
	if msg, ok := (*body)["error"].(string); ok {
		apiErr.Message = msg
		return apiErr
	}
	apiErr.Fields = make(map[string]string)
	for k, v := range *body {
		apiErr.Fields[k] = fmt.Sprint(v)
	}
	return apiErr
}

func newErrBody() *map[string]interface{} {
	body := make(map[string]interface{})
	return &body
}

func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var res StatusResponse
	_, err := do(c.request(ctx).SetResult(&res).SetError(newErrBody()), http.MethodGet, "/auth/status")
	return res, err
}

// Register self-registers a verified technician. It does not sign in.
func (c *Client) Register(ctx context.Context, ru user.RegisterUser) (user.Registration, error) {
	var res registerResponse
	req := c.request(ctx).SetBody(ru).SetResult(&res).SetError(newErrBody())
	if _, err := do(req, http.MethodPost, "/auth/register"); err != nil {
		return user.Registration{}, err
	}
	return user.Registration{User: res.User, Warning: res.Warning}, nil
}

// Login authenticates and updates the session.
func (c *Client) Login(ctx context.Context, email, password string) (user.User, error) {
	var res loginResponse
	req := c.request(ctx).
		SetBody(user.LoginUser{Email: email, Password: password}).
		SetResult(&res).
		SetError(newErrBody())
	if _, err := do(req, http.MethodPost, "/auth/login"); err != nil {
		return user.User{}, err
	}
	if err := c.session.Update(res.Token, &res.User); err != nil {
		return user.User{}, err
	}
	return res.User, nil
}

// Logout signs the session out even when the server can't be reached.
func (c *Client) Logout(ctx context.Context) error {
	_, reqErr := do(c.request(ctx).SetError(newErrBody()), http.MethodPost, "/auth/logout")
	if err := c.session.SignOut(); err != nil {
		return err
	}
	return reqErr
}

// RefreshToken exchanges the session token for a new one.
func (c *Client) RefreshToken(ctx context.Context) error {
	if !c.session.Authenticated() {
		return ErrNotAuthenticated
	}
	var res tokenResponse
	if _, err := do(c.request(ctx).SetResult(&res).SetError(newErrBody()), http.MethodPost, "/auth/token-refresh"); err != nil {
		return err
	}
	return c.session.Update(res.Token, nil)
}

func (c *Client) Me(ctx context.Context) (user.User, error) {
	if !c.session.Authenticated() {
		return user.User{}, ErrNotAuthenticated
	}
	var usr user.User
	if _, err := do(c.request(ctx).SetResult(&usr).SetError(newErrBody()), http.MethodGet, "/auth/me"); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// GetByCode looks an asset up by its exact code. A 404 is asset.ErrNotFound.
func (c *Client) GetByCode(ctx context.Context, code string) (asset.Asset, error) {
	var res lookupResponse
	req := c.request(ctx).
		SetPathParam("code", code).
		SetResult(&res).
		SetError(newErrBody())
	if _, err := do(req, http.MethodGet, "/assets/lookup/{code}"); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return asset.Asset{}, asset.ErrNotFound
		}
		return asset.Asset{}, err
	}
	return res.Data, nil
}

// LookupTAMS queries the TAMS catalog. A 404 is asset.ErrNotFound.
func (c *Client) LookupTAMS(ctx context.Context, code string) (asset.Asset, error) {
	var res lookupResponse
	req := c.request(ctx).
		SetPathParam("code", code).
		SetResult(&res).
		SetError(newErrBody())
	if _, err := do(req, http.MethodGet, "/tams/assets/{code}"); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return asset.Asset{}, asset.ErrNotFound
		}
		return asset.Asset{}, err
	}
	return res.Data, nil
}

func (c *Client) GetDetail(ctx context.Context, id string) (asset.Detail, error) {
	var detail asset.Detail
	req := c.request(ctx).SetPathParam("id", id).SetResult(&detail).SetError(newErrBody())
	if _, err := do(req, http.MethodGet, "/assets/{id}"); err != nil {
		return asset.Detail{}, err
	}
	return detail, nil
}

// RecordMaintenance posts a maintenance record on asset id with its photos as a multipart form.
func (c *Client) RecordMaintenance(ctx context.Context, id string, nm asset.NewMaintenance, photos ...Photo) (MaintenanceResponse, error) {
	var res MaintenanceResponse
	req := c.request(ctx).
		SetPathParam("id", id).
		SetMultipartFormData(map[string]string{
			"maintenance_type": nm.MaintenanceType,
			"description":      nm.Description,
			"maintenance_date": nm.MaintenanceDate,
			"verification_id":  nm.VerificationID,
		}).
		SetResult(&res).
		SetError(newErrBody())
	for _, p := range photos {
		req.SetFileReader("photos", p.Name, p.Reader)
	}
	if _, err := do(req, http.MethodPost, "/assets/{id}/maintenance"); err != nil {
		return MaintenanceResponse{}, err
	}
	return res, nil
}
