package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thronemind/internal/api"
	"thronemind/internal/models"
	"thronemind/internal/state"
)

type fakeAuth struct {
	login    models.AuthResponse
	register models.AuthResponse
	err      error
	gotForm  models.RegisterForm
}

func (f *fakeAuth) Login(context.Context, string, string) (models.AuthResponse, error) {
	return f.login, f.err
}

func (f *fakeAuth) Register(_ context.Context, rf models.RegisterForm) (models.AuthResponse, error) {
	f.gotForm = rf
	return f.register, f.err
}

type brokenStorage struct{ *MemoryStorage }

func (brokenStorage) Get(string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}

func TestLogin_PersistsSession(t *testing.T) {
	storage := NewMemoryStorage()
	s := New(storage, "http://api.local:8083")
	auth := &fakeAuth{login: models.AuthResponse{AccessToken: "t1", Nickname: "Ana"}}

	run, err := s.BeginLogin(auth, "a@b.com", "x")
	require.NoError(t, err)
	assert.True(t, s.Login.Pending())
	require.NoError(t, state.Do(context.Background(), run))

	assert.Equal(t, state.Succeeded, s.Login.Status())
	assert.Equal(t, "t1", s.AccessToken())
	p, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, models.UserProfile{Email: "a@b.com", Nickname: "Ana"}, p)

	tok, ok, _ := storage.Get(KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "t1", tok)
	raw, ok, _ := storage.Get(KeyUser)
	assert.True(t, ok)
	assert.JSONEq(t, `{"email":"a@b.com","nickname":"Ana","avatarUrl":""}`, raw)

	restored := New(storage, "")
	restored.Rehydrate()
	assert.Equal(t, "t1", restored.AccessToken())
	rp, _ := restored.Profile()
	assert.Equal(t, "Ana", rp.Nickname)
}

func TestLogin_FailureKeepsSessionEmpty(t *testing.T) {
	s := New(nil, "")
	auth := &fakeAuth{err: &api.Error{Kind: api.KindServer, Status: 400, Message: "bad credentials"}}

	run, err := s.BeginLogin(auth, "a@b.com", "wrong")
	require.NoError(t, err)
	assert.Error(t, state.Do(context.Background(), run))

	assert.Equal(t, state.Failed, s.Login.Status())
	assert.Equal(t, "bad credentials", s.Login.Err())
	assert.False(t, s.Authenticated())
}

func TestLogin_RejectedCredentialsShowMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if r.URL.Path == "/api/v1/auth/login" {
			_, _ = io.WriteString(w, `{"message":"Şifre hatalı"}`)
		}
	}))
	defer srv.Close()

	s := New(nil, srv.URL)
	var navigations int
	s.SetNavigator(NavigatorFunc(func(models.Route) { navigations++ }))
	client := api.New(srv.URL+"/api/v1/", 2*time.Second, s)

	run, err := s.BeginLogin(client, "a@b.com", "wrong")
	require.NoError(t, err)
	assert.Error(t, state.Do(context.Background(), run))
	assert.Equal(t, state.Failed, s.Login.Status())
	assert.Equal(t, "Şifre hatalı", s.Login.Err())

	run, err = s.BeginRegister(client, models.RegisterForm{Email: "a@b.com", Nickname: "Ana", Password: "x"})
	require.NoError(t, err)
	assert.Error(t, state.Do(context.Background(), run))
	assert.Equal(t, state.Failed, s.Register.Status())
	assert.Equal(t, "Kayıt başarısız", s.Register.Err())

	assert.Zero(t, navigations)
	assert.False(t, s.Authenticated())
}

func TestLogin_MissingTokenFails(t *testing.T) {
	s := New(nil, "")
	run, _ := s.BeginLogin(&fakeAuth{login: models.AuthResponse{Nickname: "Ana"}}, "a@b.com", "x")
	assert.Error(t, state.Do(context.Background(), run))
	assert.Equal(t, "Giriş başarısız", s.Login.Err())
	assert.False(t, s.Authenticated())
}

func TestRegister_PassesPhotoAndFillsProfile(t *testing.T) {
	s := New(nil, "http://api.local:8083/")
	auth := &fakeAuth{register: models.AuthResponse{AccessToken: "t3", AvatarURL: "/avatars/3.png"}}
	form := models.RegisterForm{Email: "c@d.com", Nickname: "Can", Password: "pw", Photo: &models.Photo{Filename: "me.png", Data: []byte{1}}}

	run, err := s.BeginRegister(auth, form)
	require.NoError(t, err)
	require.NoError(t, state.Do(context.Background(), run))

	assert.Equal(t, form, auth.gotForm)
	p, _ := s.Profile()
	assert.Equal(t, "Can", p.Nickname)
	assert.Equal(t, "http://api.local:8083/avatars/3.png", s.AvatarURL())
}

func TestLogout_ClearsDurableRecordAndIsIdempotent(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(KeyAccessToken, "t1"))
	require.NoError(t, storage.Set(KeyRefreshToken, "r1"))
	require.NoError(t, storage.Set(KeyUser, `{"email":"a@b.com"}`))
	s := New(storage, "")
	s.Rehydrate()
	require.True(t, s.Authenticated())

	s.Logout()
	s.Logout()

	assert.False(t, s.Authenticated())
	for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		_, ok, _ := storage.Get(k)
		assert.False(t, ok, k)
	}
}

func TestRehydrate_BadRecordsYieldEmptySession(t *testing.T) {
	cases := map[string]map[string]string{
		"empty":        {},
		"token only":   {KeyAccessToken: "t1"},
		"user only":    {KeyUser: `{"email":"a@b.com"}`},
		"corrupt user": {KeyAccessToken: "t1", KeyUser: "{not json"},
		"blank token":  {KeyAccessToken: "  ", KeyUser: `{"email":"a@b.com"}`},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			storage := NewMemoryStorage()
			for k, v := range rec {
				require.NoError(t, storage.Set(k, v))
			}
			s := New(storage, "")
			s.Rehydrate()
			assert.False(t, s.Authenticated())
			_, ok := s.Profile()
			assert.False(t, ok)
			_, ok, _ = storage.Get(KeyAccessToken)
			assert.False(t, ok, "partial record is dropped")
		})
	}

	s := New(brokenStorage{NewMemoryStorage()}, "")
	s.Rehydrate()
	assert.False(t, s.Authenticated())
}

func TestHandleUnauthorized_ClearsAndNavigatesOnce(t *testing.T) {
	storage := NewMemoryStorage()
	s := New(storage, "")
	run, _ := s.BeginLogin(&fakeAuth{login: models.AuthResponse{AccessToken: "t1"}}, "a@b.com", "x")
	require.NoError(t, state.Do(context.Background(), run))

	var routes []models.Route
	s.SetNavigator(NavigatorFunc(func(r models.Route) { routes = append(routes, r) }))

	s.HandleUnauthorized()

	assert.Equal(t, []models.Route{models.RouteLogin}, routes)
	assert.Empty(t, s.AccessToken())
	_, ok, _ := storage.Get(KeyUser)
	assert.False(t, ok)
}

func TestGuard(t *testing.T) {
	s := New(nil, "")
	assert.Equal(t, models.RouteLogin, s.Guard(models.RouteHome))
	assert.Equal(t, models.RouteLogin, s.Guard(models.RouteTodos))
	assert.Equal(t, models.RouteRegister, s.Guard(models.RouteRegister))

	run, _ := s.BeginLogin(&fakeAuth{login: models.AuthResponse{AccessToken: "t1"}}, "a@b.com", "x")
	require.NoError(t, state.Do(context.Background(), run))
	assert.Equal(t, models.RouteProfile, s.Guard(models.RouteProfile))
}
