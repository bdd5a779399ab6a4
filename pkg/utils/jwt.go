package utils

import (
	"fmt"
	"time"

	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/golang-jwt/jwt/v4"
)

const TokenExpireDuration = time.Hour * 24

// APIClaims identify the caller holding a service token.
type APIClaims struct {
	Subject string `json:"sub_name"`
	jwt.RegisteredClaims
}

// GenerateAPIToken mints an HMAC service token for subject.
func GenerateAPIToken(cfg *config.Config, subject string) (string, error) {
	claims := &APIClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExpireDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Server.JwtSecretKey))
}

// ParseAPIToken validates the signature and returns the claims.
func ParseAPIToken(cfg *config.Config, tokenString string) (*APIClaims, error) {
	claims := &APIClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(cfg.Server.JwtSecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
