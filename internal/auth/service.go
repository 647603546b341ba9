package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lucasmoura/vitalstock-backend/internal/users"
	"github.com/lucasmoura/vitalstock-backend/pkg/auth"
	"github.com/lucasmoura/vitalstock-backend/pkg/config"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
	"github.com/lucasmoura/vitalstock-backend/pkg/security"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service authenticates operators and mints access tokens.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
}

// LoginInput carries one login attempt. IP feeds the per-address rate limit.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type service struct {
	users    users.Repository
	limiter  rateLimiter
	jwtCfg   config.JWTConfig
	limitCfg config.AuthRateLimitConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the authentication service. limiter may be nil, which
// disables login rate limiting.
func NewService(userRepo users.Repository, limiter rateLimiter, jwtCfg config.JWTConfig, limitCfg config.AuthRateLimitConfig, logg *logger.Logger) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:    userRepo,
		limiter:  limiter,
		jwtCfg:   jwtCfg,
		limitCfg: limitCfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Login verifies credentials and returns a signed access token. Failures are
// deliberately uniform: a missing account and a wrong password produce the
// same error.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, errors.New(errors.CodeValidation, "email and password are required")
	}

	if err := s.checkRateLimits(ctx, email, input.IP); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading user")
	}
	if user == nil {
		return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "verifying password")
	}
	if !ok {
		s.logg.Warn(ctx, "failed login attempt")
		return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now()
	token, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		UserID: user.ID,
		UnitID: user.UnitID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "minting token")
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		User:      user,
	}, nil
}

func (s *service) checkRateLimits(ctx context.Context, email, ip string) error {
	if s.limiter == nil {
		return nil
	}

	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:email:"+email, int64(s.limitCfg.LoginEmailLimit), s.limitCfg.LoginWindow)
	if err != nil {
		// Rate limiting is protection, not a dependency: a limiter outage
		// must not lock everyone out.
		s.logg.Error(ctx, "login rate limiter unavailable", err)
		return nil
	}
	if !allowed {
		return errors.New(errors.CodeRateLimit, "too many login attempts, try again later")
	}

	if ip != "" {
		allowed, _, err = s.limiter.FixedWindowAllow(ctx, "login:ip:"+ip, int64(s.limitCfg.LoginIPLimit), s.limitCfg.LoginWindow)
		if err != nil {
			s.logg.Error(ctx, "login rate limiter unavailable", err)
			return nil
		}
		if !allowed {
			return errors.New(errors.CodeRateLimit, "too many login attempts, try again later")
		}
	}
	return nil
}
