// Package session owns the authenticated identity: the access token, the
// refresh token and the user profile, kept in memory and in durable storage.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"thronemind/internal/models"
	"thronemind/internal/state"
)

// Durable record keys.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

var errNoToken = errors.New("session: response carried no access token")

// Authenticator is the part of the API client the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (models.AuthResponse, error)
	Register(ctx context.Context, rf models.RegisterForm) (models.AuthResponse, error)
}

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(route models.Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(models.Route)

func (f NavigatorFunc) Navigate(r models.Route) { f(r) }

type Store struct {
	mu           sync.RWMutex
	storage      Storage
	origin       string
	accessToken  string
	refreshToken string
	user         *models.UserProfile
	nav          Navigator

	// Login and Register are owned by the UI goroutine like every other
	// state.Request; only the fields above are shared with the transport.
	Login    *state.Request[models.AuthResponse]
	Register *state.Request[models.AuthResponse]
}

// New returns an empty session. origin is used to resolve avatar paths.
func New(storage Storage, origin string) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &Store{
		storage:  storage,
		origin:   origin,
		Login:    state.New[models.AuthResponse]("login", "Giriş başarısız"),
		Register: state.New[models.AuthResponse]("register", "Kayıt başarısız"),
	}
}

func (s *Store) SetNavigator(n Navigator) {
	s.mu.Lock()
	s.nav = n
	s.mu.Unlock()
}

// Rehydrate loads the durable record. A missing, partial or unreadable
// record leaves the session empty.
func (s *Store) Rehydrate() {
	token, okToken, errToken := s.storage.Get(KeyAccessToken)
	rawUser, okUser, errUser := s.storage.Get(KeyUser)
	refresh, _, _ := s.storage.Get(KeyRefreshToken)

	if err := errors.Join(errToken, errUser); err != nil {
		log.Warn().Err(err).Msg("session record unreadable, starting signed out")
		s.clear()
		return
	}
	if !okToken || strings.TrimSpace(token) == "" || !okUser {
		if okToken || okUser {
			log.Info().Msg("partial session record, starting signed out")
		}
		s.clear()
		return
	}

	var user models.UserProfile
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		log.Warn().Err(err).Msg("session user record corrupted, starting signed out")
		s.clear()
		return
	}

	s.mu.Lock()
	s.accessToken = token
	s.refreshToken = refresh
	s.user = &user
	s.mu.Unlock()
	log.Debug().Str("email", user.Email).Msg("session restored")
}

// BeginLogin starts a login. On success the session is persisted before
// the Settlement reports back.
func (s *Store) BeginLogin(auth Authenticator, email, password string) (state.Runner, error) {
	call := func(ctx context.Context) (models.AuthResponse, error) {
		res, err := auth.Login(ctx, email, password)
		if err != nil {
			return res, err
		}
		if res.Email == "" {
			res.Email = email
		}
		return res, checkToken(res)
	}
	return state.Start(s.Login, call, s.accept)
}

// BeginRegister starts a registration; the optional photo travels as a
// multipart file part.
func (s *Store) BeginRegister(auth Authenticator, rf models.RegisterForm) (state.Runner, error) {
	call := func(ctx context.Context) (models.AuthResponse, error) {
		res, err := auth.Register(ctx, rf)
		if err != nil {
			return res, err
		}
		if res.Email == "" {
			res.Email = rf.Email
		}
		if res.Nickname == "" {
			res.Nickname = rf.Nickname
		}
		return res, checkToken(res)
	}
	return state.Start(s.Register, call, s.accept)
}

func checkToken(res models.AuthResponse) error {
	if res.AccessToken == "" {
		return errNoToken
	}
	return nil
}

func (s *Store) accept(res models.AuthResponse) {
	user := models.UserProfile{
		Email:          res.Email,
		Nickname:       res.Nickname,
		AvatarURL:      res.AvatarURL,
		AvatarBase64:   res.AvatarBase64,
		AvatarMimeType: res.AvatarMimeType,
	}

	s.mu.Lock()
	s.accessToken = res.AccessToken
	s.refreshToken = res.RefreshToken
	s.user = &user
	s.mu.Unlock()

	raw, err := json.Marshal(user)
	if err == nil {
		err = errors.Join(
			s.storage.Set(KeyAccessToken, res.AccessToken),
			s.storage.Set(KeyRefreshToken, res.RefreshToken),
			s.storage.Set(KeyUser, string(raw)),
		)
	}
	if err != nil {
		log.Error().Err(err).Msg("persisting session failed")
		return
	}
	log.Info().Str("email", user.Email).Msg("signed in")
}

// Logout drops the session. It never fails and may be called repeatedly.
func (s *Store) Logout() {
	s.clear()
	s.Login.Reset()
	s.Register.Reset()
	log.Info().Msg("signed out")
}

// HandleUnauthorized is called by the transport once per 401/403 response.
// It clears the session and sends the user to the login view.
func (s *Store) HandleUnauthorized() {
	s.clear()
	s.mu.RLock()
	nav := s.nav
	s.mu.RUnlock()
	log.Warn().Str("route", string(models.RouteLogin)).Msg("session revoked")
	if nav != nil {
		nav.Navigate(models.RouteLogin)
	}
}

func (s *Store) clear() {
	s.mu.Lock()
	s.accessToken = ""
	s.refreshToken = ""
	s.user = nil
	s.mu.Unlock()
	if err := s.storage.Remove(KeyAccessToken, KeyRefreshToken, KeyUser); err != nil {
		log.Warn().Err(err).Msg("clearing session record failed")
	}
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Store) Authenticated() bool {
	return s.AccessToken() != ""
}

// Profile returns a copy of the signed-in user.
func (s *Store) Profile() (models.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.UserProfile{}, false
	}
	return *s.user, true
}

// AvatarURL is the profile avatar as an absolute URL, or empty.
func (s *Store) AvatarURL() string {
	p, ok := s.Profile()
	if !ok {
		return ""
	}
	return models.ResolveAvatarURL(p.AvatarURL, s.origin)
}

// Guard returns the route to actually show for route.
func (s *Store) Guard(route models.Route) models.Route {
	if route.Protected() && !s.Authenticated() {
		return models.RouteLogin
	}
	return route
}
