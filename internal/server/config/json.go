package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
	"github.com/dmitrijs2005/sessionkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// strings such as "15m" or integer nanoseconds. Absent or zero fields keep
// the value already in Config.
type JsonConfig struct {
	EndpointAddrGRPC                  string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP                  string         `json:"endpoint_addr_http"`
	StorageBackend                    string         `json:"storage_backend"`
	DatabaseDSN                       string         `json:"database_dsn"`
	RedisAddr                         string         `json:"redis_addr"`
	SecretKey                         string         `json:"secret_key"`
	JWTIssuer                         string         `json:"jwt_issuer"`
	AccessTokenValidityDuration       timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDays          int            `json:"refresh_token_validity_days"`
	VerificationTokenValidityDuration timex.Duration `json:"verification_token_validity_duration"`
	BcryptCost                        int            `json:"bcrypt_cost"`
	AppURL                            string         `json:"app_url"`
	Environment                       string         `json:"environment"`
	LogLevel                          string         `json:"log_level"`
	SMTPHost                          string         `json:"smtp_host"`
	SMTPPort                          int            `json:"smtp_port"`
	SMTPUser                          string         `json:"smtp_user"`
	SMTPPassword                      string         `json:"smtp_password"`
	MailFrom                          string         `json:"mail_from"`
	S3RootUser                        string         `json:"s3_root_user"`
	S3RootPassword                    string         `json:"s3_root_password"`
	S3Bucket                          string         `json:"s3_bucket"`
	S3Region                          string         `json:"s3_region"`
	S3BaseEndpoint                    string         `json:"s3_base_endpoint"`
	OTelEndpoint                      string         `json:"otel_endpoint"`
}

// parseJson loads the file named by -c/-config, if any, into config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.JWTIssuer, c.JWTIssuer)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setInt(&config.RefreshTokenValidityDays, c.RefreshTokenValidityDays)
	if c.VerificationTokenValidityDuration.Duration != 0 {
		config.VerificationTokenValidityDuration = c.VerificationTokenValidityDuration.Duration
	}
	setInt(&config.BcryptCost, c.BcryptCost)
	setString(&config.AppURL, c.AppURL)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.OTelEndpoint, c.OTelEndpoint)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
