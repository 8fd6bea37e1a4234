package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingToken 开启校验时未携带令牌
var ErrMissingToken = errors.New("identity token required")

// Identity 令牌中携带的身份
type Identity struct {
	UserID string
	Name   string
}

type identityClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier HS256 身份令牌校验器，密钥为空时不启用
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier 创建校验器
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Enabled 是否要求令牌
func (v *TokenVerifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Verify 校验令牌并取出身份，sub 为用户 ID
func (v *TokenVerifier) Verify(raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	var claims identityClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid identity token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid identity token: %w", jwt.ErrTokenRequiredClaimMissing)
	}
	return &Identity{UserID: claims.Subject, Name: claims.Name}, nil
}

// Sign 签发令牌，ttl 为 0 时不过期
func (v *TokenVerifier) Sign(id Identity, ttl time.Duration) (string, error) {
	claims := identityClaims{
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.UserID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
