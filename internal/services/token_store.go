package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/homeauto/mercedesme-api/internal/appmetrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrNoToken means the store holds nothing usable and a full interactive
// login is required.
var ErrNoToken = errors.New("no token available")

// TokenStore holds the current token pair and persists every successful
// acquisition to a cache file. Its mutex guarantees at most one refresh is in
// flight at a time; every authenticated request obtains its bearer through
// Access.
type TokenStore struct {
	mu    sync.Mutex
	path  string
	auth  AuthService
	clock clock.Clock
	log   *zerolog.Logger
	token *Token
}

func NewTokenStore(path string, auth AuthService, logger *zerolog.Logger) *TokenStore {
	return &TokenStore{
		path:  path,
		auth:  auth,
		clock: clock.New(),
		log:   logger,
	}
}

// Load reads the persisted token cache. A missing or corrupt cache is not an
// error, it just means interactive login is needed. An expired cached token
// gets one refresh attempt; if that fails Load returns nil as well.
func (s *TokenStore) Load(ctx context.Context) *Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	token := new(Token)
	if err := json.Unmarshal(raw, token); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("Token cache is corrupt, ignoring it.")
		return nil
	}

	if token.Expired(s.clock.Now()) {
		appmetrics.TokenRefreshesTotal.Inc()
		refreshed, err := s.auth.Refresh(ctx, token.RefreshToken)
		if err != nil {
			appmetrics.TokenRefreshFailuresTotal.Inc()
			s.log.Warn().Err(err).Msg("Cached token expired and refresh failed.")
			return nil
		}
		token = refreshed
		if err := s.save(token); err != nil {
			s.log.Warn().Err(err).Msg("Could not persist refreshed token.")
		}
	}

	s.token = token
	return token
}

// Set installs a freshly acquired token and persists it.
func (s *TokenStore) Set(token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	return s.save(token)
}

// Access returns a bearer access token for immediate use, refreshing first
// when the current one is inside the expiry skew. When the refresh fails the
// stale access token is returned together with the error so the caller can
// decide to proceed and let the next HTTP call surface the failure.
func (s *TokenStore) Access(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return "", ErrNoToken
	}

	if !s.token.Expired(s.clock.Now()) {
		return s.token.AccessToken, nil
	}

	appmetrics.TokenRefreshesTotal.Inc()
	refreshed, err := s.auth.Refresh(ctx, s.token.RefreshToken)
	if err != nil {
		appmetrics.TokenRefreshFailuresTotal.Inc()
		return s.token.AccessToken, errors.Wrap(err, "token refresh failed")
	}

	s.token = refreshed
	if err := s.save(refreshed); err != nil {
		s.log.Warn().Err(err).Msg("Could not persist refreshed token.")
	}

	return s.token.AccessToken, nil
}

// save writes the token cache durably: full write to a temp file in the same
// directory, then rename over the destination.
func (s *TokenStore) save(token *Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return errors.Wrap(err, "failed to marshal token")
	}

	tmp := filepath.Join(filepath.Dir(s.path), filepath.Base(s.path)+".tmp")
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write token cache %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(err, "failed to replace token cache %s", s.path)
	}
	return nil
}
