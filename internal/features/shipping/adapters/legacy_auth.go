package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"carrier-gateway/internal/core/config"
	"carrier-gateway/internal/core/logger"
	"carrier-gateway/internal/features/shipping/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// The provider states tokens are valid for 10 days; expire ours a day
	// early as a safety buffer.
	tokenValidity = 9 * 24 * time.Hour
	// Tokens with less remaining lifetime than this are refreshed proactively.
	refreshThreshold = 12 * time.Hour
	// How often the background refresher re-authenticates.
	refreshInterval = 8 * 24 * time.Hour
	// Pre-issued tokens from configuration are trusted for 30 days from
	// process start.
	preIssuedValidity = 30 * 24 * time.Hour
)

// authSession obtains and keeps fresh the bearer token for the legacy API.
// Concurrent refreshers are collapsed into a single login call; waiters block
// on the in-flight refresh and observe its result.
type authSession struct {
	cfg    config.CarrierConfig
	client *http.Client
	logger *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group

	refreshOnce sync.Once
	closeOnce   sync.Once
	stopRefresh chan struct{}
}

func newAuthSession(cfg config.CarrierConfig, client *http.Client) *authSession {
	s := &authSession{
		cfg:         cfg,
		client:      client,
		logger:      logger.Get(),
		stopRefresh: make(chan struct{}),
	}

	if cfg.LegacyToken != "" {
		s.token = cfg.LegacyToken
		s.expiresAt = time.Now().Add(preIssuedValidity)
	}

	return s
}

// authenticate ensures a valid token is held, logging in when needed.
// With forceRefresh false it is a no-op while more than refreshThreshold of
// lifetime remains; below that a refresh is forced proactively.
func (s *authSession) authenticate(ctx context.Context, forceRefresh bool) error {
	s.mu.Lock()
	remaining := time.Until(s.expiresAt)
	hasToken := s.token != ""
	s.mu.Unlock()

	if !forceRefresh && hasToken && remaining > refreshThreshold {
		return nil
	}

	_, err, _ := s.group.Do("login", func() (interface{}, error) {
		return nil, s.login(ctx)
	})
	return err
}

// login performs the credentials call and stores the new token. Token state
// is cleared on any failure.
func (s *authSession) login(ctx context.Context) error {
	if s.cfg.LegacyEmail == "" || s.cfg.LegacyPassword == "" {
		s.clear()
		return &domain.AuthError{Message: "legacy api credentials not configured"}
	}

	payload, err := json.Marshal(map[string]string{
		"email":    s.cfg.LegacyEmail,
		"password": s.cfg.LegacyPassword,
	})
	if err != nil {
		s.clear()
		return &domain.AuthError{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.LegacyBaseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		s.clear()
		return &domain.AuthError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.clear()
		return &domain.AuthError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		s.clear()
		if resp.StatusCode == http.StatusUnauthorized {
			return &domain.AuthError{Status: resp.StatusCode, Message: "invalid credentials"}
		}
		return &domain.AuthError{Status: resp.StatusCode, Message: snippet(body)}
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &loginResp); err != nil {
		s.clear()
		return &domain.AuthError{Status: resp.StatusCode, Message: "unparseable login response: " + snippet(body)}
	}
	if loginResp.Token == "" {
		s.clear()
		return &domain.AuthError{Status: resp.StatusCode, Message: "login response missing token"}
	}

	s.mu.Lock()
	s.token = loginResp.Token
	s.expiresAt = time.Now().Add(tokenValidity)
	s.mu.Unlock()

	s.logger.Info("Carrier token refreshed", zap.Time("expires_at", time.Now().Add(tokenValidity)))

	s.startBackgroundRefresh()
	return nil
}

// bearer returns the current token, possibly empty.
func (s *authSession) bearer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// invalidate drops the current token so the next call re-authenticates.
func (s *authSession) invalidate() {
	s.clear()
}

func (s *authSession) clear() {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// startBackgroundRefresh launches the periodic refresher. Runs at most once
// per session.
func (s *authSession) startBackgroundRefresh() {
	s.refreshOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(refreshInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					if err := s.authenticate(context.Background(), true); err != nil {
						s.logger.Error("Background token refresh failed", zap.Error(err))
					}
				case <-s.stopRefresh:
					return
				}
			}
		}()
	})
}

// Close stops the background refresher. Idempotent.
func (s *authSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopRefresh)
	})
	return nil
}
