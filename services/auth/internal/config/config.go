package config

import (
	"time"

	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
)

type Config struct {
	pkgconfig.Config

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
	ResetURL   string
}

func Load() Config {
	pkgconfig.LoadDotEnv(".env", "services/auth/.env")

	base := pkgconfig.Load()
	if base.ServiceName == "" {
		base.ServiceName = "auth"
	}

	pkgconfig.MustNonEmpty(base.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustNonEmptyBytes(base.JWTAccessSecret, "JWT_SECRET")
	pkgconfig.MustNonEmptyBytes(base.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	return Config{
		Config:     base,
		AccessTTL:  pkgconfig.EnvDurationDefault("ACCESS_TTL", 15*time.Minute),
		RefreshTTL: pkgconfig.EnvDurationDefault("REFRESH_TTL", 7*24*time.Hour),
		ResetTTL:   pkgconfig.EnvDurationDefault("RESET_TTL", time.Hour),
		ResetURL:   pkgconfig.EnvDefault("RESET_URL", "http://localhost:8080/password/reset"),
	}
}
