package helpers

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType tells access and refresh tokens apart.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

// JWTManager handles generation and validation of JWT tokens
type JWTManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

// Identity is the non-sensitive data baked into every token so downstream
// consumers can authorize without a database round trip.
// Role/UserType come from the customer profile, StoreName/IsApproved only
// for vendors.
type Identity struct {
	UserID     int64
	Username   string
	Email      string
	IsStaff    bool
	Role       string
	UserType   string
	StoreName  string
	IsApproved *bool
}

type Claims struct {
	TokenType  TokenType `json:"token_type"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsStaff    bool      `json:"is_staff"`
	Role       string    `json:"role,omitempty"`
	UserType   string    `json:"user_type,omitempty"`
	StoreName  string    `json:"store_name,omitempty"`
	IsApproved *bool     `json:"is_approved,omitempty"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func (m *JWTManager) GeneratePair(id Identity) (TokenPair, error) {
	access, aexp, err := m.GenerateAccessToken(id)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := m.GenerateRefreshToken(id)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (m *JWTManager) GenerateAccessToken(id Identity) (string, time.Time, error) {
	return sign(id, TokenTypeAccess, m.AccessSecret, m.AccessTTL)
}

func (m *JWTManager) GenerateRefreshToken(id Identity) (string, time.Time, error) {
	return sign(id, TokenTypeRefresh, m.RefreshSecret, m.RefreshTTL)
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	return parseToken(tokenStr, m.AccessSecret, TokenTypeAccess)
}

func (m *JWTManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return parseToken(tokenStr, m.RefreshSecret, TokenTypeRefresh)
}

func sign(id Identity, typ TokenType, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		TokenType:  typ,
		UserID:     id.UserID,
		Username:   id.Username,
		Email:      id.Email,
		IsStaff:    id.IsStaff,
		Role:       id.Role,
		UserType:   id.UserType,
		StoreName:  id.StoreName,
		IsApproved: id.IsApproved,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(id.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	return s, exp, err
}

func parseToken(tokenStr string, secret []byte, want TokenType) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, errors.New("token missing jti or exp")
	}
	return claims, nil
}
