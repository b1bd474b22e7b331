package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	echoapi "github.com/roeiles/voortgang/apps/api/echo"
	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/user"
	"github.com/roeiles/voortgang/testutil"
)

const pwd = "RoeienOpDeAmstel"

var (
	conf = &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Voortgang",
		SecretKey: "test-secret",
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	}

	errMissingToken = httpErr{Error: "missing or malformed jwt", Redirect: "/"}
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type app struct {
	*echoapi.Server
	env *testutil.Env
}

func setup(t *testing.T) app {
	env := testutil.NewEnv(t)
	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         nopLogger{},
		UserSvc:        env.UserSvc,
		SubjectSvc:     env.SubjectSvc,
		GradingSvc:     env.GradingSvc,
		SessionSvc:     env.SessionSvc,
		Validate:       env.Validate,
		Translator:     core.NewTranslator(),
		DisableReqLogs: true,
	})
	return app{Server: srv, env: env}
}

type httpErr struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
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

// do serves one request and returns the recorder.
func (a app) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	a.ServeHTTP(rec, req)
	return rec
}

// login creates a user with role and returns it with a token for a fresh session.
func (a app) login(t *testing.T, uname string, role user.Role, group user.Group) (user.User, string) {
	t.Helper()
	usr := testutil.CreateUser(t, a.env.UserRepo, uname, uname, pwd, role, group)
	return usr, a.token(t, uname)
}

func (a app) token(t *testing.T, uname string) string {
	t.Helper()
	sess, err := a.env.SessionSvc.Login(testContext, uname, pwd)
	require.NoError(t, err)
	token, err := echoapi.GenerateToken(conf, sess)
	require.NoError(t, err)
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
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

func runHTTPTests(t *testing.T, a app, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			a.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
