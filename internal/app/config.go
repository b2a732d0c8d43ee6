package app

import (
	"time"

	"github.com/tnahs/hlts/internal/platform/logger"
	"github.com/tnahs/hlts/internal/utils"
)

type Config struct {
	Port           string
	ServiceName    string
	Environment    string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	CORSOrigins    []string
	AutoMigrate    bool
	MergeLockTTL   time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:           utils.GetEnv("PORT", "8080", log),
		ServiceName:    utils.GetEnv("OTEL_SERVICE_NAME", "hlts", log),
		Environment:    utils.GetEnv("APP_ENV", "development", log),
		JWTSecretKey:   utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", nil),
		AccessTokenTTL: time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 86400, log)) * time.Second,
		CORSOrigins:    utils.GetEnvAsList("CORS_ALLOW_ORIGINS", nil, log),
		AutoMigrate:    utils.GetEnvAsBool("DB_AUTO_MIGRATE", true, log),
		MergeLockTTL:   time.Duration(utils.GetEnvAsInt("MERGE_LOCK_TTL_SECONDS", 30, log)) * time.Second,
	}
}
