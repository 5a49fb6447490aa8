package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:           "development",
		Port:          "8080",
		JWTSecret:     "secure-secret-at-least-32-chars-long",
		DBDriver:      "postgres",
		DBPassword:    "secure-password",
		DBSSLMode:     "require",
		StorageDriver: "local",
		BcryptCost:    10,
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid production config", func(c *Config) { c.Env = "production" }, false},
		{"Production with disabled SSL", func(c *Config) { c.Env = "production"; c.DBSSLMode = "disable" }, true},
		{"Prod with empty SSL", func(c *Config) { c.Env = "prod"; c.DBSSLMode = "" }, true},
		{"Production with default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"Production with short secret", func(c *Config) { c.Env = "production"; c.JWTSecret = "short" }, true},
		{"Production with default DB password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }, true},
		{"Production with sqlite", func(c *Config) { c.Env = "production"; c.DBDriver = "sqlite" }, true},
		{"Development with disabled SSL", func(c *Config) { c.DBSSLMode = "disable" }, false},
		{"Development with sqlite", func(c *Config) { c.DBDriver = "sqlite" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateDrivers(t *testing.T) {
	c := validConfig()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.StorageDriver = "s3"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.StorageDriver = "supabase"
	assert.Error(t, c.Validate(), "supabase storage needs credentials")

	c.SupabaseURL = "https://project.supabase.co"
	c.SupabaseServiceKey = "service-key"
	assert.NoError(t, c.Validate())

	c = validConfig()
	c.BcryptCost = 2
	assert.Error(t, c.Validate())
}

func TestConfig_Durations(t *testing.T) {
	c := &Config{}
	assert.Equal(t, time.Hour, c.SignedURLTTL())
	assert.Equal(t, int64(5*1024*1024), c.UploadMaxBytes())

	c.SignedURLTTLSeconds = 120
	c.UploadMaxSizeMB = 2
	assert.Equal(t, 2*time.Minute, c.SignedURLTTL())
	assert.Equal(t, int64(2*1024*1024), c.UploadMaxBytes())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("STORAGE_DRIVER", "Local")
	t.Setenv("STORAGE_PUBLIC_URL", "http://localhost:8080/")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "local", c.StorageDriver)
	assert.Equal(t, "http://localhost:8080", c.StoragePublicURL)
	assert.Equal(t, "nextfilms", c.StorageBucket)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, 8, c.FeedEnrichConcurrency)
}
