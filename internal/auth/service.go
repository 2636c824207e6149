package auth

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Permission gates API operations.
type Permission string

const (
	// PermView allows reading status and streaming waveforms.
	PermView Permission = "view"
	// PermControl allows changing patient state, patterns and
	// parameters.
	PermControl Permission = "control"
)

const RoleOperator = "operator"

// AuthService authorizes the single config-provisioned operator. The
// simulator keeps no user store; the credential comes from the config
// file and tokens are stateless JWTs.
type AuthService struct {
	logger     *zap.Logger
	jwtHandler *JWTHandler
	hasher     *SecretHasher

	operatorUser string
	secretHash   string // empty disables login entirely
}

func NewAuthService(logger *zap.Logger, jwtSecret string, accessTTL time.Duration, operatorUser, operatorSecretHash string) *AuthService {
	return &AuthService{
		logger:       logger,
		jwtHandler:   NewJWTHandler(jwtSecret, accessTTL),
		hasher:       NewSecretHasher(),
		operatorUser: operatorUser,
		secretHash:   operatorSecretHash,
	}
}

// Login verifies the operator credential and issues an access token.
func (a *AuthService) Login(username, secret string) (string, error) {
	if a.secretHash == "" {
		return "", fmt.Errorf("login disabled: no operator secret configured")
	}
	if username != a.operatorUser {
		a.logger.Warn("Login attempt with unknown user", zap.String("username", username))
		return "", fmt.Errorf("invalid credentials")
	}

	ok, err := a.hasher.VerifySecret(secret, a.secretHash)
	if err != nil {
		return "", fmt.Errorf("failed to verify secret: %w", err)
	}
	if !ok {
		a.logger.Warn("Login attempt with wrong secret", zap.String("username", username))
		return "", fmt.Errorf("invalid credentials")
	}

	token, err := a.jwtHandler.GenerateAccessToken(username, RoleOperator)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	a.logger.Info("Operator logged in", zap.String("username", username))
	return token, nil
}

// ValidateToken parses the access token and returns its claims.
func (a *AuthService) ValidateToken(token string) (*JWTClaims, error) {
	return a.jwtHandler.ValidateAccessToken(token)
}

// PermissionsForRole maps a role to its permission set.
func PermissionsForRole(role string) []Permission {
	switch role {
	case RoleOperator:
		return []Permission{PermView, PermControl}
	default:
		return []Permission{PermView}
	}
}
