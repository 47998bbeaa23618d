package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"teahouse/internal/model"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var errInvalidToken = errors.New("invalid token")

// TokenIssuer signs access and refresh tokens with separate HS256 secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (t *TokenIssuer) Issue(user model.User) (model.TokenPair, error) {
	now := t.now().UTC()
	sub := user.ID.Hex()

	access, err := sign(t.accessSecret, jwt.MapClaims{
		"sub":      sub,
		"email":    user.Email,
		"username": user.Username,
		"fullname": user.Fullname,
		"typ":      tokenTypeAccess,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(t.accessTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := sign(t.refreshSecret, jwt.MapClaims{
		"sub": sub,
		"typ": tokenTypeRefresh,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(t.refreshTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *TokenIssuer) ValidateAccess(token string) (*model.AuthClaims, error) {
	return t.validate(token, t.accessSecret, tokenTypeAccess)
}

func (t *TokenIssuer) ValidateRefresh(token string) (*model.AuthClaims, error) {
	return t.validate(token, t.refreshSecret, tokenTypeRefresh)
}

func (t *TokenIssuer) validate(tokenString string, secret []byte, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}

	typ, _ := claimsMap["typ"].(string)
	if typ != expectedType {
		return nil, errInvalidToken
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Fullname, _ = claimsMap["fullname"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, errInvalidToken
	}

	return claims, nil
}

func sign(secret []byte, claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
