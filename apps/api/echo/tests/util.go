package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/specedu/caseboard/apps/api/echo"
	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/iep"
	"github.com/specedu/caseboard/core/message"
	"github.com/specedu/caseboard/core/question"
	"github.com/specedu/caseboard/core/record"
	"github.com/specedu/caseboard/core/user"
	emailsvc "github.com/specedu/caseboard/services/email"
	notifysvc "github.com/specedu/caseboard/services/notify"
	inmemdb "github.com/specedu/caseboard/storage/inmem"
	testutil "github.com/specedu/caseboard/tests"
)

var (
	errMissingToken = httpErr{Message: "未登入"}
	errBadToken     = httpErr{Message: "憑證無效"}
	errForbidden    = httpErr{Message: "您的權限不足，無法執行此動作"}
)

type fakeSummarizer struct {
	mu      sync.Mutex
	prompts []string
	summary string
	err     error
}

func (s *fakeSummarizer) Summarize(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.summary, s.err
}

func (s *fakeSummarizer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type storedUpload struct {
	iep.UploadFile
	content string
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads []storedUpload
	err     error
}

func (s *fakeStorage) Upload(_ context.Context, file iep.UploadFile) (iep.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return iep.StoredFile{}, s.err
	}
	body, err := io.ReadAll(file.Body)
	if err != nil {
		return iep.StoredFile{}, err
	}
	s.uploads = append(s.uploads, storedUpload{UploadFile: file, content: string(body)})
	return iep.StoredFile{ID: "drive-1", Name: file.Name, Link: "https://drive.test/drive-1"}, nil
}

type testEnv struct {
	conf   *core.Config
	tables *inmemdb.DB
	hub    *notifysvc.Hub
	mail   *emailsvc.ConsoleServiceMock
	ai     *fakeSummarizer
	files  *fakeStorage
	logger *testutil.Logger
	app    *Server
}

func setup(t *testing.T) *testEnv {
	conf := testutil.NewConfig()
	conf.Server.MaxUploadSize = 1 << 10
	return setupConf(t, conf)
}

func setupConf(t *testing.T, conf *core.Config) *testEnv {
	logger := testutil.NewLogger(t)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	env := &testEnv{
		conf:   conf,
		tables: testutil.NewTables(),
		hub:    notifysvc.NewHub(),
		mail:   emailsvc.NewConsoleServiceMock(conf, logger),
		ai:     &fakeSummarizer{summary: "- 重點一"},
		files:  &fakeStorage{},
		logger: logger,
	}
	t.Cleanup(env.hub.Close)

	usrSvc := user.NewService(env.tables, conf, logger)
	env.app = NewServer(conf, logger, validate, translator, Services{
		Users:     usrSvc,
		Records:   record.NewService(env.tables, env.hub, logger),
		Messages:  message.NewService(env.tables, env.hub, env.ai, logger),
		IEP:       iep.NewService(env.tables, env.files, logger),
		Questions: question.NewService(env.tables, env.hub, usrSvc, env.mail, logger),
		Hub:       env.hub,
	})
	return env
}

type httpErr struct {
	Message string `json:"message"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
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

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr.Identity()))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// runTests serves every test case and checks its response.
func runTests(t *testing.T, app http.Handler, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// decode unmarshals the recorded response body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	decodeBytes(t, rec.Body.Bytes(), v)
}

func decodeBytes(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", data, err)
	}
}
