package config

import (
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
)

func Load() pkgconfig.Config {
	pkgconfig.LoadDotEnv(".env", "services/storefront/.env")

	cfg := pkgconfig.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "storefront"
	}

	pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	pkgconfig.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")
	return cfg
}
