package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topsell/tams/client"
	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/user"
	"github.com/topsell/tams/core/verification"
)

const (
	testOutlets   = "ID\tKODE\tNAMA\n1\tMJ01\tTOPSELL BHAYANGKARA\n2\tMJ02\tTOPSELL GAJAH MADA\n"
	testDivisions = "ID\tNAMA\n1\tSALES\n4\tIT\n"
)

var errBoom = errors.New("connection refused")

type fakeAPI struct {
	assets   map[string]asset.Asset
	lookups  []string
	recorded []asset.NewMaintenance
	photos   []string
	session  *client.Session
}

func (f *fakeAPI) Register(_ context.Context, ru user.RegisterUser) (user.Registration, error) {
	return user.Registration{User: user.RegisteredUser{ID: "u1", Email: ru.Email}}, nil
}

func (f *fakeAPI) Login(_ context.Context, email, pwd string) (user.User, error) {
	if pwd != "rahasia" {
		return user.User{}, &client.APIError{StatusCode: 400, Message: "invalid email or password"}
	}
	usr := user.User{ID: "u1", Email: email, Name: "Budi", Role: user.RoleTechnician}
	return usr, f.session.Update("tok", &usr)
}

func (f *fakeAPI) Logout(context.Context) error { return f.session.SignOut() }

func (f *fakeAPI) GetByCode(_ context.Context, code string) (asset.Asset, error) {
	f.lookups = append(f.lookups, code)
	if code == "BOOM" {
		return asset.Asset{}, errBoom
	}
	a, ok := f.assets[code]
	if !ok {
		return asset.Asset{}, asset.ErrNotFound
	}
	return a, nil
}

func (f *fakeAPI) LookupTAMS(_ context.Context, code string) (asset.Asset, error) {
	if code != "A-2024-001" {
		return asset.Asset{}, asset.ErrNotFound
	}
	return asset.Asset{Code: code, Name: "Industrial Generator X500", Category: "Power Equipment", Status: asset.StatusActive}, nil
}

func (f *fakeAPI) GetDetail(_ context.Context, id string) (asset.Detail, error) {
	for _, a := range f.assets {
		if a.ID == id {
			tech := &asset.Technician{Name: "Budi"}
			return asset.Detail{Asset: a, History: []asset.MaintenanceRecord{{
				MaintenanceDate: "2024-05-01", MaintenanceType: asset.MaintenancePreventive,
				Status: asset.MaintenancePending, Description: "filter cleaning", Technician: tech,
			}}}, nil
		}
	}
	return asset.Detail{}, asset.ErrNotFound
}

func (f *fakeAPI) RecordMaintenance(_ context.Context, id string, nm asset.NewMaintenance, photos ...client.Photo) (client.MaintenanceResponse, error) {
	f.recorded = append(f.recorded, nm)
	for _, p := range photos {
		b, _ := io.ReadAll(p.Reader)
		f.photos = append(f.photos, p.Name+"="+string(b))
	}
	return client.MaintenanceResponse{Record: asset.MaintenanceRecord{ID: "m1", AssetID: id}}, nil
}

func setup(t *testing.T, stdin string) (*commandLine, *fakeAPI, *bytes.Buffer) {
	storage := verification.NewMemoryStorage()
	session := client.NewSession(storage)
	api := &fakeAPI{
		assets:  map[string]asset.Asset{"AST-001": {ID: "a1", Code: "AST-001", Name: "Air Conditioner Unit 1", Status: asset.StatusActive}},
		session: session,
	}
	out := new(bytes.Buffer)
	cli := &commandLine{
		api:     api,
		session: session,
		tables:  verification.NewTables(testOutlets, testDivisions),
		store:   verification.NewStorageStore(storage),
		in:      strings.NewReader(stdin),
		out:     out,
	}
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("rahasia"), nil }
	return cli, api, out
}

func TestCommandLine_help(t *testing.T) {
	cli, _, out := setup(t, "")
	for _, args := range [][]string{{"scanner"}, {"scanner", "lol"}, {"scanner", "login"}, {"scanner", "asset"}, {"scanner", "tams"}, {"scanner", "record"}} {
		assert.Equal(t, errHelp, cli.run(args), args)
	}
	assert.Contains(t, out.String(), "Usage:")
}

func TestCommandLine_auth(t *testing.T) {
	cli, _, out := setup(t, "")

	require.NoError(t, cli.run([]string{"scanner", "register", "-email", "budi@topsell.co.id"}))
	assert.Contains(t, out.String(), "Registered budi@topsell.co.id")

	assert.Equal(t, client.ErrNotAuthenticated, cli.run([]string{"scanner", "whoami"}))

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("salah"), nil }
	assert.EqualError(t, cli.run([]string{"scanner", "login", "-email", "budi@topsell.co.id"}), "invalid email or password")

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("rahasia"), nil }
	require.NoError(t, cli.run([]string{"scanner", "login", "-email", "budi@topsell.co.id"}))
	assert.Contains(t, out.String(), "Welcome Budi!")

	out.Reset()
	require.NoError(t, cli.run([]string{"scanner", "whoami"}))
	assert.Equal(t, "Budi <budi@topsell.co.id> (teknisi)\n", out.String())

	require.NoError(t, cli.run([]string{"scanner", "logout"}))
	assert.False(t, cli.session.Authenticated())
}

func TestCommandLine_verify(t *testing.T) {
	cli, _, out := setup(t, "")

	require.NoError(t, cli.run([]string{"scanner", "verify", "-list"}))
	assert.Contains(t, out.String(), "1:1    ID 1 1 MJ01_TOPSELL BHAYANGKARA_SALES\n")

	out.Reset()
	require.NoError(t, cli.run([]string{"scanner", "verify"}))
	assert.Contains(t, out.String(), "Verification ID: (incomplete)")

	out.Reset()
	require.NoError(t, cli.run([]string{"scanner", "verify", "-pair", "2:4"}))
	assert.Contains(t, out.String(), "Verification ID: 2-4")

	// persisted between runs
	out.Reset()
	require.NoError(t, cli.run([]string{"scanner", "verify"}))
	assert.Contains(t, out.String(), "Outlet:   2 TOPSELL GAJAH MADA (MJ02)")
	assert.Contains(t, out.String(), "Verification ID: 2-4")

	out.Reset()
	require.NoError(t, cli.run([]string{"scanner", "verify", "-mode", "manual", "-outlet", "mj01", "-division", "sales"}))
	assert.Contains(t, out.String(), "Mode:     manual")
	assert.Contains(t, out.String(), "Verification ID: 1-1")

	out.Reset()
	require.NoError(t, cli.run([]string{"scanner", "verify", "-outlet", "unknown"}))
	assert.Contains(t, out.String(), "Outlet:   -")
	assert.Contains(t, out.String(), "Verification ID: (incomplete)")

	assert.Equal(t, verification.ErrInvalidMode, cli.run([]string{"scanner", "verify", "-mode", "camera"}))
}

func TestCommandLine_scan(t *testing.T) {
	t.Run("not found then retry then found", func(t *testing.T) {
		cli, api, out := setup(t, "NOPE\nAST-001\n\nAST-001\nAST-002\n")
		require.NoError(t, cli.run([]string{"scanner", "verify", "-pair", "1:4"}))
		out.Reset()

		require.NoError(t, cli.run([]string{"scanner", "scan"}))
		assert.Equal(t, []string{"NOPE", "AST-001"}, api.lookups, "decodes while paused are ignored and the loop stops once found")
		s := out.String()
		assert.Contains(t, s, "Verification ID: 1-4\nScan a barcode")
		assert.Contains(t, s, `Asset with code "NOPE" not found. Press Enter to scan again.`)
		assert.Contains(t, s, "ignored AST-001: press Enter to scan again")
		assert.Contains(t, s, "Ready.")
		assert.Contains(t, s, "Found AST-001: Air Conditioner Unit 1")
		assert.Contains(t, s, "2024-05-01  preventive pending     filter cleaning (Budi)")
	})

	t.Run("lookup failure", func(t *testing.T) {
		cli, api, out := setup(t, "BOOM\n")
		require.NoError(t, cli.run([]string{"scanner", "scan"}))
		assert.Equal(t, []string{"BOOM"}, api.lookups)
		assert.Contains(t, out.String(), "warning: no verification context")
		assert.Contains(t, out.String(), "Error searching for asset.")
	})
}

func TestCommandLine_asset(t *testing.T) {
	cli, _, out := setup(t, "")
	require.NoError(t, cli.run([]string{"scanner", "asset", "AST-001"}))
	assert.Contains(t, out.String(), "AST-001  Air Conditioner Unit 1")
	assert.Equal(t, asset.ErrNotFound, cli.run([]string{"scanner", "asset", "NOPE"}))
}

func TestCommandLine_record(t *testing.T) {
	cli, api, out := setup(t, "")
	require.NoError(t, cli.run([]string{"scanner", "verify", "-pair", "1:1"}))

	photo := filepath.Join(t.TempDir(), "before.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("jpeg"), 0o600))

	out.Reset()
	require.NoError(t, cli.run([]string{
		"scanner", "record", "-asset", "AST-001", "-type", "preventive",
		"-description", "filter cleaning", "-date", "2024-05-01", "-photo", photo,
	}))
	assert.Equal(t, "Recorded maintenance m1 on AST-001 (0 photos).\n", out.String())
	require.Len(t, api.recorded, 1)
	assert.Equal(t, "1-1", api.recorded[0].VerificationID)
	assert.Equal(t, "preventive", api.recorded[0].MaintenanceType)
	assert.Equal(t, []string{"before.jpg=jpeg"}, api.photos)

	assert.Equal(t, asset.ErrNotFound, cli.run([]string{"scanner", "record", "-asset", "NOPE"}))
}

func TestCommandLine_verifyCorruptedStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tams.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"topsell_verification_context_v1":"{\"mode\":\"sel`), 0o600))

	logs := new(bytes.Buffer)
	storage := openStorage(path, log.New(logs, "", 0))
	assert.Contains(t, logs.String(), "warning: reading device storage")

	cli, _, out := setup(t, "")
	cli.session = client.NewSession(storage)
	cli.store = verification.NewStorageStore(storage)

	require.NoError(t, cli.run([]string{"scanner", "verify"}))
	assert.Contains(t, out.String(), "Mode:     select")
	assert.Contains(t, out.String(), "Verification ID: (incomplete)")

	require.NoError(t, cli.run([]string{"scanner", "verify", "-pair", "1:4"}))

	// the corrupt file was replaced
	logs.Reset()
	storage = openStorage(path, log.New(logs, "", 0))
	assert.Empty(t, logs.String())
	r := verification.NewResolver(cli.tables, verification.NewStorageStore(storage))
	assert.Equal(t, "1-4", r.Result().ID)
}

func TestCommandLine_tams(t *testing.T) {
	cli, _, out := setup(t, "")
	require.NoError(t, cli.run([]string{"scanner", "tams", "A-2024-001"}))
	assert.Contains(t, out.String(), "A-2024-001  Industrial Generator X500")
	assert.Contains(t, out.String(), "category: Power Equipment")

	out.Reset()
	assert.Equal(t, asset.ErrNotFound, cli.run([]string{"scanner", "tams", "ZZ-NOPE"}))
	assert.Equal(t, "Asset ZZ-NOPE not found in TAMS system.\n", out.String())
}
