package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"thronemind/internal/models"
)

type fakeCreds struct {
	mu      sync.Mutex
	token   string
	revoked int
}

func (f *fakeCreds) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeCreds) HandleUnauthorized() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.revoked++
}

type ClientSuite struct {
	suite.Suite
	mux    *http.ServeMux
	server *httptest.Server
	creds  *fakeCreds
	client *Client
}

func (s *ClientSuite) SetupTest() {
	s.mux = http.NewServeMux()
	s.server = httptest.NewServer(s.mux)
	s.creds = &fakeCreds{token: "t1"}
	s.client = New(s.server.URL+"/api/v1/", 2*time.Second, s.creds)
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (s *ClientSuite) TestAttachesBearerToken() {
	var got string
	s.mux.HandleFunc("/api/v1/summary/daily", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, `{"date":"2026-10-16","tasksDone":3,"aiRecommendations":["rest"]}`)
	})

	sum, err := s.client.DailySummary(context.Background())
	s.Require().NoError(err)
	s.Equal("Bearer t1", got)
	s.Equal(3, sum.TasksDone)
	s.Equal([]string{"rest"}, sum.AIRecommendations)
}

func (s *ClientSuite) TestNoTokenNoHeader() {
	s.creds.token = ""
	var got []string
	s.mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Values("Authorization")
		writeJSON(w, http.StatusOK, `{"accessToken":"t2","nickname":"Ana"}`)
	})

	res, err := s.client.Login(context.Background(), "a@b.com", "x")
	s.Require().NoError(err)
	s.Empty(got)
	s.Equal("t2", res.AccessToken)
	s.Equal("Ana", res.Nickname)
}

func (s *ClientSuite) TestUnauthorizedRevokesOnce() {
	s.mux.HandleFunc("/api/v1/prompt/act", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"expired"}`)
	})

	_, err := s.client.Act(context.Background(), "hello")
	s.Require().Error(err)
	s.True(IsUnauthorized(err))
	s.Equal(1, s.creds.revoked)
	s.Equal("", s.creds.AccessToken())
}

func (s *ClientSuite) TestForbiddenIsUnauthorized() {
	s.mux.HandleFunc("/api/v1/tasks/optimize", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := s.client.OptimizeTasks(context.Background(), []int64{5, 7})
	s.True(IsUnauthorized(err))
	s.Equal(1, s.creds.revoked)
}

func (s *ClientSuite) TestRejectedLoginDoesNotRevoke() {
	var got []string
	s.mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Values("Authorization")
		writeJSON(w, http.StatusUnauthorized, `{"message":"Şifre hatalı"}`)
	})

	_, err := s.client.Login(context.Background(), "a@b.com", "wrong")
	s.Require().Error(err)
	s.Empty(got)
	s.False(IsUnauthorized(err))
	s.Equal("Şifre hatalı", Message(err, "fallback"))
	s.Equal(0, s.creds.revoked)
	s.Equal("t1", s.creds.AccessToken())
}

func (s *ClientSuite) TestUnauthorizedWithoutTokenDoesNotRevoke() {
	s.creds.token = ""
	s.mux.HandleFunc("/api/v1/summary/daily", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := s.client.DailySummary(context.Background())
	s.Require().Error(err)
	s.False(IsUnauthorized(err))
	s.Equal(0, s.creds.revoked)
}

func (s *ClientSuite) TestServerMessageSurfaced() {
	s.mux.HandleFunc("/api/v1/prompt/improve", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"message":"prompt too short"}`)
	})

	_, err := s.client.ImprovePrompt(context.Background(), "x")
	s.Require().Error(err)
	s.False(IsUnauthorized(err))
	s.Equal("prompt too short", Message(err, "fallback"))
	s.Equal(0, s.creds.revoked)
}

func (s *ClientSuite) TestServerErrorWithoutMessageUsesFallback() {
	s.mux.HandleFunc("/api/v1/summary/daily", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := s.client.DailySummary(context.Background())
	s.Require().Error(err)
	s.Equal("fallback", Message(err, "fallback"))
}

func (s *ClientSuite) TestUpdateTaskStatusPatchesPath() {
	var method, body string
	s.mux.HandleFunc("/api/v1/tasks/42/status", func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusNoContent)
	})

	upd, err := s.client.UpdateTaskStatus(context.Background(), 42, models.StatusDone)
	s.Require().NoError(err)
	s.Equal(http.MethodPatch, method)
	s.JSONEq(`{"status":"DONE"}`, body)
	s.Equal(models.TaskStatusUpdate{ID: 42, Status: models.StatusDone}, upd)
}

func (s *ClientSuite) TestRegisterSendsMultipartPhoto() {
	var fields map[string]string
	var photo []byte
	s.mux.HandleFunc("/api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fields = map[string]string{
			"email":    r.FormValue("email"),
			"nickname": r.FormValue("nickname"),
			"password": r.FormValue("password"),
		}
		f, _, err := r.FormFile("photo")
		if err == nil {
			photo, _ = io.ReadAll(f)
			_ = f.Close()
		}
		writeJSON(w, http.StatusOK, `{"accessToken":"t3","email":"a@b.com","nickname":"Ana","avatarUrl":"/avatars/1.png"}`)
	})

	res, err := s.client.Register(context.Background(), models.RegisterForm{
		Email:    "a@b.com",
		Nickname: "Ana",
		Password: "x",
		Photo:    &models.Photo{Filename: "/tmp/me.png", Data: []byte("\x89PNG\r\n\x1a\nrest")},
	})
	s.Require().NoError(err)
	s.Equal(map[string]string{"email": "a@b.com", "nickname": "Ana", "password": "x"}, fields)
	s.Equal("\x89PNG\r\n\x1a\nrest", string(photo))
	s.Equal("/avatars/1.png", res.AvatarURL)
}

func TestNetworkErrorIsNotUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	creds := &fakeCreds{token: "t1"}
	c := New(url+"/api/v1/", time.Second, creds)
	_, err := c.DailySummary(context.Background())
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Equal(t, 0, creds.revoked)
	assert.Equal(t, "fallback", Message(err, "fallback"))
}

func TestErrorString(t *testing.T) {
	e := &Error{Kind: KindServer, Status: 500, Message: "boom"}
	assert.True(t, strings.Contains(e.Error(), "boom"))
	assert.ErrorIs(t, &Error{Kind: KindAuth, Status: 401}, ErrUnauthorized)
}
