package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService 负责签发与校验操作员的访问令牌（RS256）。
type TokenService struct {
	privateKey     *rsa.PrivateKey
	publicKey      *rsa.PublicKey
	accessTokenTTL time.Duration
	now            func() time.Time
}

// AccessToken is a signed token and its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// OperatorClaims 是令牌中携带的操作员信息，中间件据此识别调用方。
type OperatorClaims struct {
	OperatorID uint   `json:"operator_id"`
	Username   string `json:"username"`
	jwt.RegisteredClaims
}

// NewTokenService 解析 PEM 密钥并构造服务实例。
func NewTokenService(privateKeyPEM, publicKeyPEM []byte, accessTTL time.Duration) (*TokenService, error) {
	if len(privateKeyPEM) == 0 {
		return nil, errors.New("private key pem is required")
	}
	if len(publicKeyPEM) == 0 {
		return nil, errors.New("public key pem is required")
	}
	if accessTTL <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa private key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa public key: %w", err)
	}

	return &TokenService{
		privateKey:     privateKey,
		publicKey:      publicKey,
		accessTokenTTL: accessTTL,
		now:            time.Now,
	}, nil
}

// Issue signs an access token for the operator.
func (s *TokenService) Issue(operatorID uint, username string) (AccessToken, error) {
	now := s.now()
	expires := now.Add(s.accessTokenTTL)
	claims := OperatorClaims{
		OperatorID: operatorID,
		Username:   username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(operatorID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, ExpiresAt: expires}, nil
}

// Validate 解析并验证 JWT。
func (s *TokenService) Validate(tokenString string) (*OperatorClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.publicKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid || claims.OperatorID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// AccessTokenTTL 暴露访问令牌有效期。
func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.accessTokenTTL
}
