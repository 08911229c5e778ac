package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"endpoint_addr_grpc":                   "www.example:9000",
		"endpoint_addr_http":                   "www.example:9001",
		"storage_backend":                      "memory",
		"database_dsn":                         "postgres://db",
		"redis_addr":                           "redis:6379",
		"secret_key":                           "my_secret_key",
		"jwt_issuer":                           "issuer",
		"access_token_validity_duration":       "1m",
		"refresh_token_validity_days":          7,
		"verification_token_validity_duration": "2h",
		"bcrypt_cost":                          13,
		"app_url":                              "https://app.example",
		"environment":                          "production",
		"log_level":                            "debug",
		"smtp_host":                            "smtp.example",
		"smtp_port":                            2525,
		"smtp_user":                            "mailer",
		"smtp_password":                        "pw",
		"mail_from":                            "noreply@example.com",
		"s3_root_user":                         "user",
		"s3_root_password":                     "password",
		"s3_bucket":                            "bucket",
		"s3_region":                            "region",
		"s3_base_endpoint":                     "base_endpoint",
		"otel_endpoint":                        "otel:4318",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, parseJson(cfg, []string{"-config", full}))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "www.example:9001", cfg.EndpointAddrHTTP)
		assert.Equal(t, "memory", cfg.StorageBackend)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, "issuer", cfg.JWTIssuer)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 7, cfg.RefreshTokenValidityDays)
		assert.Equal(t, 2*time.Hour, cfg.VerificationTokenValidityDuration)
		assert.Equal(t, 13, cfg.BcryptCost)
		assert.Equal(t, "https://app.example", cfg.AppURL)
		assert.Equal(t, "production", cfg.Environment)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "smtp.example", cfg.SMTPHost)
		assert.Equal(t, 2525, cfg.SMTPPort)
		assert.Equal(t, "mailer", cfg.SMTPUser)
		assert.Equal(t, "pw", cfg.SMTPPassword)
		assert.Equal(t, "noreply@example.com", cfg.MailFrom)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "otel:4318", cfg.OTelEndpoint)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"secret_key": "only-this"})

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, []string{"-c", partial}))

		assert.Equal(t, "only-this", cfg.SecretKey)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		cfg := &Config{EndpointAddrGRPC: "defaults:1234", SecretKey: "key"}
		require.NoError(t, parseJson(cfg, []string{"-a", ":1"}))

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, "key", cfg.SecretKey)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Error(t, parseJson(&Config{}, []string{"-config", bad}))
	})

	t.Run("invalid duration → error", func(t *testing.T) {
		bad := writeTempJSON(t, dir, "dur.json", map[string]any{"access_token_validity_duration": "soon"})

		require.Error(t, parseJson(&Config{}, []string{"-c", bad}))
	})
}
