package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/employee-management/internal"
)

// Service authenticates operators allowed to change user records.
type Service struct {
	credentials    CredentialStore
	tokenGenerator TokenGenerator
	logger         *slog.Logger
	now            func() time.Time
}

func NewService(credentials CredentialStore, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		credentials:    credentials,
		tokenGenerator: tokenGen,
		logger:         logger,
		now:            time.Now,
	}
}

// NewServiceFromConfig wires the service from the security section.
func NewServiceFromConfig(cfg internal.SecurityConfig, logger *slog.Logger) *Service {
	creds := make(StaticCredentials, len(cfg.Operators))
	for _, op := range cfg.Operators {
		creds[op.Username] = op.PasswordHash
	}
	return NewService(creds, NewJWTTokenGenerator(cfg.JWTSecret, cfg.AccessTokenDuration), logger)
}

func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	storedHash, ok := s.credentials.PasswordHash(dto.Username)
	if !ok {
		s.logger.Warn("login for unknown operator", "username", dto.Username)
		return AuthTokens{}, invalidCredentials()
	}

	if err := VerifyPassword(storedHash, dto.Password); err != nil {
		s.logger.Warn("login with wrong password", "username", dto.Username)
		return AuthTokens{}, invalidCredentials()
	}

	token, expiresAt, err := s.tokenGenerator.GenerateAccessToken(dto.Username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}

	s.logger.Info("operator logged in", "username", dto.Username)

	return AuthTokens{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(expiresAt.Sub(s.now()).Seconds()),
	}, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.tokenGenerator.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, internal.NewUnauthorizedError("Token has expired", internal.ErrCodeTokenExpired).WithCause(err)
		}
		return nil, internal.NewUnauthorizedError("Invalid token", internal.ErrCodeInvalidToken).WithCause(err)
	}
	return claims, nil
}
