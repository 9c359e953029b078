package config

import (
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
)

type Config struct {
	ListenAddr    string
	LogLevel      string
	AuthURL       string
	CatalogURL    string
	StorefrontURL string
	JWTSecret     []byte
	SecureCookies bool
}

func Load() *Config {
	pkgconfig.LoadDotEnv(".env", "gateway/.env")

	cfg := &Config{
		ListenAddr:    pkgconfig.EnvDefault("GATEWAY_ADDR", ":8080"),
		LogLevel:      pkgconfig.EnvDefault("LOG_LEVEL", "info"),
		AuthURL:       pkgconfig.EnvDefault("AUTH_URL", ""),
		CatalogURL:    pkgconfig.EnvDefault("CATALOG_URL", ""),
		StorefrontURL: pkgconfig.EnvDefault("STOREFRONT_URL", ""),
		JWTSecret:     []byte(pkgconfig.EnvDefault("JWT_SECRET", "")),
		SecureCookies: pkgconfig.EnvBoolDefault("SECURE_COOKIES", true),
	}

	pkgconfig.MustNonEmpty(cfg.AuthURL, "AUTH_URL")
	pkgconfig.MustNonEmpty(cfg.CatalogURL, "CATALOG_URL")
	pkgconfig.MustNonEmpty(cfg.StorefrontURL, "STOREFRONT_URL")
	pkgconfig.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	return cfg
}
