package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		DatabaseURL:      "postgres://localhost:5432/linguameet",
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		JWTAccessTTL:     30 * time.Minute,
		JWTRefreshTTL:    720 * time.Hour,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }},
		{"missing access secret", func(c *Config) { c.JWTAccessSecret = "" }},
		{"missing refresh secret", func(c *Config) { c.JWTRefreshSecret = "" }},
		{"shared secret", func(c *Config) { c.JWTRefreshSecret = c.JWTAccessSecret }},
		{"access ttl not shorter", func(c *Config) { c.JWTAccessTTL = c.JWTRefreshTTL }},
		{"zero ttl", func(c *Config) { c.JWTAccessTTL = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestSplitCSV(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"*"}, splitCSV("*"))
	require.Equal(t, []string{"https://a.example", "https://b.example"},
		splitCSV(" https://a.example , https://b.example "))
	require.Empty(t, splitCSV(""))
}
