package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/lob-api/internal/dto"
	"github.com/noah-isme/lob-api/internal/models"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
)

// TokenConfig defines how bearer and refresh tokens are signed.
type TokenConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	Audience           []string
}

// TokenService issues and validates the HS256 bearer/refresh token pair.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(config TokenConfig) *TokenService {
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 5 * time.Minute
	}
	if config.RefreshTokenExpiry <= 0 {
		config.RefreshTokenExpiry = 14 * 24 * time.Hour
	}
	return &TokenService{config: config, now: time.Now}
}

// SessionGrant carries the per-session claims added to a token pair.
type SessionGrant struct {
	SessionID  string
	Privileged bool
	Elevated   bool
}

// Issue signs a new access and refresh token for the user.
func (s *TokenService) Issue(user *models.User, roles []string, grant SessionGrant) (*dto.TokenResponse, error) {
	issuedAt := s.now().UTC()

	access := s.claims(user, roles, grant, models.TokenTypeAccess, issuedAt, s.config.AccessTokenExpiry)
	accessToken, err := s.sign(access)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refresh := s.claims(user, roles, grant, models.TokenTypeRefresh, issuedAt, s.config.RefreshTokenExpiry)
	refresh.SecurityStamp = user.SecurityStamp
	refreshToken, err := s.sign(refresh)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	return &dto.TokenResponse{
		TokenType:    "Bearer",
		AccessToken:  accessToken,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		RefreshToken: refreshToken,
	}, nil
}

// ValidateAccessToken parses a bearer token.
func (s *TokenService) ValidateAccessToken(token string) (*models.JWTClaims, error) {
	return s.parse(token, models.TokenTypeAccess)
}

// ValidateRefreshToken parses a refresh token. Expired or tampered tokens are unauthorized.
func (s *TokenService) ValidateRefreshToken(token string) (*models.JWTClaims, error) {
	return s.parse(token, models.TokenTypeRefresh)
}

func (s *TokenService) claims(user *models.User, roles []string, grant SessionGrant, tokenType string, issuedAt time.Time, ttl time.Duration) *models.JWTClaims {
	claims := &models.JWTClaims{
		UserID:     user.ID,
		SessionID:  grant.SessionID,
		Email:      user.EmailValue(),
		UserName:   user.UserName,
		Roles:      roles,
		Privileged: grant.Privileged,
		Elevated:   grant.Elevated,
		TokenType:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return claims
}

func (s *TokenService) sign(claims *models.JWTClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *TokenService) parse(tokenString, tokenType string) (*models.JWTClaims, error) {
	if tokenString == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing token")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if len(s.config.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(s.config.Audience...))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.TokenType != tokenType {
		return nil, appErrors.Wrap(fmt.Errorf("unexpected token type %q", claims.TokenType), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token type")
	}
	return claims, nil
}
