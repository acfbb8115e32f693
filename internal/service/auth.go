package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/auth"
	"github.com/rise171/system-control-defects/internal/cache"
	"github.com/rise171/system-control-defects/internal/models"
	"github.com/rise171/system-control-defects/internal/policy"
	"github.com/rise171/system-control-defects/internal/repository"
)

// LoginInput is the credentials payload of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *models.User `json:"user"`
}

var errBadCredentials = fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthenticated)

type Auth struct {
	base
	tokens *auth.Tokens
	users  *Users
}

// Register creates an account without a token. Which roles may be picked is
// up to the policy.
func (a *Auth) Register(ctx context.Context, in repository.UserInput) (*models.User, error) {
	return a.users.Create(ctx, nil, in)
}

// Login checks the credentials and issues an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := a.store.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, a.fail("login", err)
	}
	if !auth.VerifyPassword(in.Password, user.PasswordHash) {
		a.logger.Warn("login rejected",
			"event", "auth_login_rejected",
			"module", "service",
			"layer", "application",
			"user_id", user.ID,
		)
		return nil, errBadCredentials
	}

	token, _, err := a.tokens.Issue(*user)
	if err != nil {
		return nil, a.fail("login", fmt.Errorf("issue token: %w", err))
	}
	a.done("login", "user_id", user.ID)
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(a.tokens.TTL() / time.Second),
		User:        user,
	}, nil
}

// Me returns the current record of the authenticated user.
func (a *Auth) Me(ctx context.Context, actor *policy.Actor) (*models.User, error) {
	if err := a.requireActor(actor); err != nil {
		return nil, err
	}
	u, err := a.store.Users.Get(ctx, actor.UserID)
	return u, a.fail("me", err)
}

// Sessions maps bearer tokens to the users they were issued for. Users are
// cached briefly by id; updates and deletes evict them.
type Sessions struct {
	store  *repository.Store
	tokens *auth.Tokens
	users  cache.Cache[uint, models.User]
	logger *slog.Logger

	// evictions counts Forget calls per user. A lookup that started before
	// an eviction must not repopulate the cache with what it read.
	mu        sync.Mutex
	evictions map[uint]uint64
}

func NewSessions(store *repository.Store, tokens *auth.Tokens, ttl time.Duration, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		store:     store,
		tokens:    tokens,
		users:     cache.NewTTLCache[uint, models.User](ttl),
		logger:    logger,
		evictions: make(map[uint]uint64),
	}
}

// Resolve validates token and returns the user it names. A valid token for a
// user that no longer exists is rejected.
func (s *Sessions) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", apperrors.ErrUnauthenticated)
	}
	claims, err := s.tokens.Resolve(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}

	if u, ok := s.users.Get(claims.UserID); ok {
		return &u, nil
	}
	gen := s.generation(claims.UserID)
	u, err := s.store.Users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d no longer exists", apperrors.ErrUnauthenticated, claims.UserID)
		}
		return nil, err
	}
	s.remember(gen, *u)
	return u, nil
}

// Forget drops any cached identity for userID.
func (s *Sessions) Forget(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictions[userID]++
	s.users.Delete(userID)
}

// Run purges expired identities every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.users.PurgeExpired()
			s.logger.Debug("session cache swept",
				"event", "session_cache_swept",
				"module", "service",
				"layer", "application",
				"entries", s.users.Len(),
			)
		}
	}
}

func (s *Sessions) generation(userID uint) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictions[userID]
}

// remember caches u unless it was evicted after gen was taken.
func (s *Sessions) remember(gen uint64, u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evictions[u.ID] != gen {
		return
	}
	s.users.Set(u.ID, u, 0)
}
