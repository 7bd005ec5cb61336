package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	AppName           string
	AppPort           string
	DBDSN             string
	MongoURI          string
	MongoDB           string
	JWTSecret         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	UploadDir         string
	SeedAdminPassword string
}

var Env EnvConfig

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		Log.Warn("Warning: .env file not found")
	}

	Env.AppName = getOr("APP_NAME", "responta")
	Env.AppPort = getOr("APP_PORT", "3000")
	Env.DBDSN = os.Getenv("DB_DSN")
	Env.MongoURI = os.Getenv("MONGO_URI")
	Env.MongoDB = getOr("MONGO_DB_NAME", "responta")
	Env.JWTSecret = os.Getenv("JWT_SECRET")
	Env.AccessTokenTTL = durationOr("ACCESS_TOKEN_TTL", 30*time.Minute)
	Env.RefreshTokenTTL = durationOr("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	Env.UploadDir = getOr("UPLOAD_DIR", "./uploads")
	Env.SeedAdminPassword = os.Getenv("SEED_ADMIN_PASSWORD")
}

func GetJWTSecret() string {
	return Env.JWTSecret
}

func getOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		Log.Warnf("Invalid %s '%s', defaulting to %s", key, v, fallback)
		return fallback
	}
	return d
}
