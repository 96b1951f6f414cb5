package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/user"
	"github.com/topsell/tams/core/verification"
)

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// newTestAPI serves a minimal API accepting the token "tok-1".
func newTestAPI(t *testing.T) *httptest.Server {
	authorized := func(r *http.Request) bool { return r.Header.Get("Authorization") == "Bearer tok-1" }

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "configured": true})
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var ru user.RegisterUser
		_ = json.NewDecoder(r.Body).Decode(&ru)
		if len(ru.Password) < 6 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Password must be at least 6 characters"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "User registered and verified successfully",
			"user":    map[string]string{"id": "u1", "email": ru.Email},
			"warning": "User profile was not created",
		})
	})
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var lu user.LoginUser
		_ = json.NewDecoder(r.Body).Decode(&lu)
		if lu.Password != "rahasia" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token": "tok-1",
			"user":  map[string]string{"id": "u1", "email": lu.Email, "name": "Budi", "role": "teknisi"},
		})
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired jwt"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "u1", "email": "budi@topsell.co.id", "name": "Budi"})
	})
	mux.HandleFunc("/api/auth/token-refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "tok-2"})
	})
	mux.HandleFunc("/api/assets/lookup/", func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/api/assets/lookup/") {
		case "AST-001":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]string{"id": "a1", "code": "AST-001", "name": "Air Conditioner Unit 1"},
			})
		case "BOOM":
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Asset not found"})
		}
	})
	mux.HandleFunc("/api/assets/a1/maintenance", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if r.FormValue("maintenance_type") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"maintenance_type": "this field is required"})
			return
		}
		photos := make([]map[string]string, 0)
		for _, fh := range r.MultipartForm.File["photos"] {
			photos = append(photos, map[string]string{"photo_url": "http://tams.test/media/" + fh.Filename})
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"record": map[string]string{"id": "m1", "asset_id": "a1", "verification_id": r.FormValue("verification_id")},
			"photos": photos,
		})
	})
	mux.HandleFunc("/api/tams/assets/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/api/tams/assets/") != "A-2024-001" {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Asset not found in TAMS system"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]string{"code": "A-2024-001", "name": "Industrial Generator X500", "category": "Power Equipment"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_auth(t *testing.T) {
	srv := newTestAPI(t)
	ctx := context.Background()
	storage := verification.NewMemoryStorage()
	c := New(srv.URL+"/api/", NewSession(storage))

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Configured)

	_, err = c.Me(ctx)
	assert.Equal(t, ErrNotAuthenticated, err)

	reg, err := c.Register(ctx, user.RegisterUser{Email: "budi@topsell.co.id", Password: "123"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Password must be at least 6 characters", err.Error())

	reg, err = c.Register(ctx, user.RegisterUser{Email: "budi@topsell.co.id", Password: "rahasia"})
	require.NoError(t, err)
	assert.Equal(t, "u1", reg.User.ID)
	assert.Equal(t, "User profile was not created", reg.Warning)
	assert.False(t, c.Session().Authenticated(), "registering must not sign in")

	_, err = c.Login(ctx, "budi@topsell.co.id", "salah")
	assert.EqualError(t, err, "invalid email or password")

	usr, err := c.Login(ctx, "budi@topsell.co.id", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTechnician, usr.Role)
	assert.Equal(t, "tok-1", c.Session().Token())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Budi", me.Name)

	// a new session restores the persisted one
	restored := NewSession(storage)
	restored.Initialize()
	assert.Equal(t, "tok-1", restored.Token())
	require.NotNil(t, restored.User())
	assert.Equal(t, "budi@topsell.co.id", restored.User().Email)

	require.NoError(t, c.RefreshToken(ctx))
	assert.Equal(t, "tok-2", c.Session().Token())
	assert.Equal(t, "Budi", c.Session().User().Name, "refresh keeps the user")

	_, err = c.Me(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.Session().Authenticated())
	assert.Nil(t, c.Session().User())

	restored = NewSession(storage)
	restored.Initialize()
	assert.False(t, restored.Authenticated())
}

func TestClient_GetByCode(t *testing.T) {
	srv := newTestAPI(t)
	ctx := context.Background()
	c := New(srv.URL+"/api", nil)

	a, err := c.GetByCode(ctx, "AST-001")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "Air Conditioner Unit 1", a.Name)

	_, err = c.GetByCode(ctx, "NOPE")
	assert.Equal(t, asset.ErrNotFound, err)

	_, err = c.GetByCode(ctx, "BOOM")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestClient_RecordMaintenance(t *testing.T) {
	srv := newTestAPI(t)
	ctx := context.Background()
	c := New(srv.URL+"/api", nil)

	_, err := c.RecordMaintenance(ctx, "a1", asset.NewMaintenance{Description: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, map[string]string{"maintenance_type": "this field is required"}, apiErr.Fields)
	assert.Equal(t, "maintenance_type: this field is required", apiErr.Error())

	res, err := c.RecordMaintenance(ctx, "a1",
		asset.NewMaintenance{MaintenanceType: "preventive", Description: "filter", MaintenanceDate: "2024-05-01", VerificationID: "1-4"},
		Photo{Name: "a.png", Reader: strings.NewReader("png")},
		Photo{Name: "b.png", Reader: io.LimitReader(strings.NewReader("png"), 3)},
	)
	require.NoError(t, err)
	assert.Equal(t, "1-4", res.Record.VerificationID)
	require.Len(t, res.Photos, 2)
	assert.Equal(t, "http://tams.test/media/b.png", res.Photos[1].PhotoURL)
}

func TestClient_LookupTAMS(t *testing.T) {
	srv := newTestAPI(t)
	ctx := context.Background()
	c := New(srv.URL+"/api", nil)

	a, err := c.LookupTAMS(ctx, "A-2024-001")
	require.NoError(t, err)
	assert.Equal(t, "Industrial Generator X500", a.Name)
	assert.Equal(t, "Power Equipment", a.Category)

	_, err = c.LookupTAMS(ctx, "ZZ-NOPE")
	assert.Equal(t, asset.ErrNotFound, err)
}

func TestSession(t *testing.T) {
	var s Session
	assert.False(t, s.Authenticated())
	require.NoError(t, s.Update("tok", &user.User{Name: "Budi"}))
	assert.Equal(t, "tok", s.Token())

	usr := s.User()
	usr.Name = "changed"
	assert.Equal(t, "Budi", s.User().Name)
	require.NoError(t, s.SignOut())
	assert.Nil(t, s.User())

	storage := verification.NewMemoryStorage()
	require.NoError(t, storage.SetItem(SessionKey, "{corrupt"))
	s2 := NewSession(storage)
	s2.Initialize()
	assert.False(t, s2.Authenticated())
}
