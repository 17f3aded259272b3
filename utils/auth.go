package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Principal kinds carried in the status claim
const (
	PrincipalUser    = "user"
	PrincipalProject = "project"
	PrincipalAdmin   = "admin"
)

const (
	useAccess  = "access"
	useRefresh = "refresh"
)

var (
	jwtSecret  string
	accessTTL  = 24 * time.Hour
	refreshTTL = 30 * 24 * time.Hour
)

func SetJWTSecret(secret string) {
	jwtSecret = secret
}

// SetTokenTTL overrides the access and refresh token lifetimes
func SetTokenTTL(access, refresh time.Duration) {
	if access > 0 {
		accessTTL = access
	}
	if refresh > 0 {
		refreshTTL = refresh
	}
}

// RefreshTTL is the lifetime used for refresh cookies
func RefreshTTL() time.Duration {
	return refreshTTL
}

func getJWTSecret() string {
	if jwtSecret == "" {
		panic("JWT secret is not set in config")
	}
	return jwtSecret
}

// Password Hashing Functions
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password")
	}
	return string(bytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// JWT Functions
type Claims struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Use    string `json:"use,omitempty"`
	jwt.RegisteredClaims
}

func signClaims(id, status, use string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID:     id,
		Status: status,
		Use:    use,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(getJWTSecret()))
	if err != nil {
		return "", fmt.Errorf("failed to generate token")
	}
	return signedToken, nil
}

// GenerateJWTToken issues an access token for a principal
func GenerateJWTToken(id, status string) (string, error) {
	return signClaims(id, status, useAccess, accessTTL)
}

// GenerateRefreshToken issues a long-lived token accepted only by ParseRefreshToken
func GenerateRefreshToken(id, status string) (string, error) {
	return signClaims(id, status, useRefresh, refreshTTL)
}

func parse(tokenString, use string) (*Claims, error) {
	claims := &Claims{}
	secret := []byte(getJWTSecret())

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Use != use || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	return parse(tokenString, useAccess)
}

func ParseRefreshToken(tokenString string) (*Claims, error) {
	return parse(tokenString, useRefresh)
}

// Token Generation
func GenerateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random token")
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// StateTTL bounds an OAuth round trip
const StateTTL = 10 * time.Minute

// GenerateStateToken binds an OAuth state parameter to a user and provider
func GenerateStateToken(id, provider string) (string, error) {
	return signClaims(id, PrincipalUser, "oauth:"+provider, StateTTL)
}

// ParseStateToken returns the user a state parameter was issued to
func ParseStateToken(tokenString, provider string) (*Claims, error) {
	return parse(tokenString, "oauth:"+provider)
}
