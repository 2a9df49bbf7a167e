// Package auth 负责签发与解析 JWT。
//
// 同一个密钥签发三种 token：access、refresh 与邮箱验证 token，
// 通过 typ 声明区分，避免互相冒用。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/d60-Lab/eventhub/config"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
	TokenVerify  TokenType = "verify"
)

var (
	ErrInvalidToken = errors.New("token is invalid or expired")
	ErrWrongType    = errors.New("token type mismatch")
)

// Claims 标准声明 + token 类型。Subject 为用户 ID，ID(jti) 用于登出黑名单
type Claims struct {
	jwt.RegisteredClaims
	Type TokenType `json:"typ"`
}

// UserID 返回 sub
func (c *Claims) UserID() string { return c.Subject }

// Remaining 距离过期的剩余时间，用作黑名单条目的 TTL
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	verifyTTL  time.Duration
	now        func() time.Time
}

func NewIssuer(cfg config.JWTConfig) *Issuer {
	return &Issuer{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		verifyTTL:  cfg.VerifyTTL,
		now:        time.Now,
	}
}

// Pair 登录/刷新时返回的一对 token
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (i *Issuer) IssuePair(userID string) (Pair, error) {
	access, err := i.Generate(userID, TokenAccess)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.Generate(userID, TokenRefresh)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (i *Issuer) Generate(userID string, typ TokenType) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl(typ))),
		},
		Type: typ,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse 校验签名、有效期与类型
func (i *Issuer) Parse(tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, ErrWrongType
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) ttl(typ TokenType) time.Duration {
	switch typ {
	case TokenRefresh:
		return i.refreshTTL
	case TokenVerify:
		return i.verifyTTL
	default:
		return i.accessTTL
	}
}
