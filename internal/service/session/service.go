// Package session turns identity provider tokens into storefront sessions
// and resolves them on later requests.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
	sessionrepo "github.com/zeewalex59-ux/shopelitesource/internal/repository/session"
)

// Session is the signed-in user attached to a request.
type Session struct {
	Token     string      `json:"token"`
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

type ctxKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session in ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

type IdentityVerifier interface {
	Verify(token string) (domain.User, error)
}

type Service struct {
	verifier IdentityVerifier
	repo     sessionrepo.Repository
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func New(verifier IdentityVerifier, repo sessionrepo.Repository, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{verifier: verifier, repo: repo, ttl: ttl, logger: logger, now: time.Now}
}

// Login verifies a provider token and persists a new session for its user.
func (s *Service) Login(ctx context.Context, providerToken string) (*Session, error) {
	user, err := s.verifier.Verify(providerToken)
	if err != nil {
		s.logger.Info("session: rejected identity token", zap.Error(err))
		return nil, errors.Wrap(domain.ErrUnauthorized, err.Error())
	}
	expiresAt := s.now().Add(s.ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return nil, err
		}
		err = s.repo.Create(ctx, domain.SessionRecord{Token: token, User: user, ExpiresAt: expiresAt})
		if err == nil {
			s.logger.Info("session: established", zap.String("user", user.ID), zap.Bool("admin", user.IsAdmin))
			return &Session{Token: token, User: user, ExpiresAt: expiresAt}, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return nil, errors.Wrap(err, "store session")
	}
	return nil, errors.New("session token collision")
}

// Logout clears the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	err := s.repo.Delete(ctx, token)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return errors.Wrap(err, "delete session")
	}
	s.logger.Debug("session: cleared")
	return nil
}

// Resume rehydrates a persisted session. Expired sessions are removed.
func (s *Service) Resume(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	rec, err := s.repo.Get(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if s.now().After(rec.ExpiresAt) {
		_ = s.repo.Delete(ctx, token)
		return nil, domain.ErrUnauthorized
	}
	return &Session{Token: rec.Token, User: rec.User, ExpiresAt: rec.ExpiresAt}, nil
}

// Sweep deletes expired sessions.
func (s *Service) Sweep(ctx context.Context) error {
	n, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return errors.Wrap(err, "sweep sessions")
	}
	if n > 0 {
		s.logger.Info("session: swept expired", zap.Int64("count", n))
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
