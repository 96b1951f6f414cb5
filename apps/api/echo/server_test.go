package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/user"
	"github.com/topsell/tams/core/verification"
	emailsvc "github.com/topsell/tams/services/email"
	logsvc "github.com/topsell/tams/services/logger"
	tamssvc "github.com/topsell/tams/services/tams"
	cachestore "github.com/topsell/tams/storage/cache"
	sqlxrepos "github.com/topsell/tams/storage/database/sqlx"
	photostore "github.com/topsell/tams/storage/photos"
	"github.com/topsell/tams/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app       *Server
	conf      *core.Config
	usrRepo   user.Repository
	assetRepo asset.Repository
	mailSvc   *emailsvc.ConsoleServiceMock
}

func testTables() *verification.Tables {
	return &verification.Tables{
		Outlets: []verification.Outlet{
			{ID: "1", Code: "MJ01", Name: "TOPSELL BHAYANGKARA"},
			{ID: "2", Code: "MJ02", Name: "TOPSELL GAJAH MADA"},
			{ID: "5", Code: "SB01", Name: "TOPSELL DARMO"},
		},
		Divisions: []verification.Division{
			{ID: "1", Name: "SALES"},
			{ID: "4", Name: "IT"},
		},
	}
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	conf := testutil.NewConf()
	conf.Storage.LocalDir = t.TempDir()

	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	assetRepo := sqlxrepos.NewAssetRepository(db)

	// set up services
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(db, usrRepo, mailSvc, conf)
	photos := photostore.NewLocalStore(conf.Storage.LocalDir, conf.Storage.PublicBaseURL)
	assetSvc := asset.NewService(assetRepo, photos)
	catalog, err := tamssvc.LoadCatalog()
	require.NoError(t, err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up server
	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		AssetSvc:       assetSvc,
		Tables:         testTables(),
		ContextStores:  cachestore.NewStores(nil, 0),
		Catalog:        catalog,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = app.Close() })

	return &testEnv{app: app, conf: conf, usrRepo: usrRepo, assetRepo: assetRepo, mailSvc: mailSvc}
}

func (env *testEnv) createUser(t *testing.T, email, role string) user.User {
	return testutil.CreateUser(t, env.usrRepo, email, "rahasia", core.EmailLocalPart(email), role)
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	token, err := env.app.auth.token(usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (env *testEnv) serve(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	env.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

type formFile struct {
	field, name string
	data        []byte
}

func newMultipartRequest(t *testing.T, path, token string, fields map[string]string, files ...formFile) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshall() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, env *testEnv, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, env.serve(req, rec))
		})
	}
}

func TestServer_home(t *testing.T) {
	env := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Welcome to TAMS Test API!", rec.Body.String())
}
