package helper

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fiber/responta/app/model"
	"fiber/responta/config"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

func GenerateToken(u model.User) (string, error) {
	return sign(u, TokenAccess, config.Env.AccessTokenTTL)
}

func GenerateRefreshToken(u model.User) (string, error) {
	return sign(u, TokenRefresh, config.Env.RefreshTokenTTL)
}

func sign(u model.User, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := model.JWTClaims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role.Name,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.GetJWTSecret()))
}

func ValidateToken(tokenString string) (*model.JWTClaims, error) {
	secret := config.GetJWTSecret()
	token, err := jwt.ParseWithClaims(tokenString, &model.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*model.JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
