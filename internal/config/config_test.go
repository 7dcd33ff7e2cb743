package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validTestConfig() *Config {
	return &Config{
		Server: ServerConfig{Hostname: "localhost", Port: 8080},
		Database: DatabasesConfig{
			Consent: DatabaseConfig{
				Type:     "mysql",
				Hostname: "localhost",
				Port:     3306,
				User:     "user",
				Password: "pass",
				Database: "consentdb",
			},
		},
		Consent: ConsentConfig{
			StatusMappings: ConsentStatusMappings{
				ReceivedStatus:   "received",
				AuthorizedStatus: "authorized",
				AmendedStatus:    "amended",
				RejectedStatus:   "rejected",
				RevokedStatus:    "revoked",
				ExpiredStatus:    "expired",
			},
		},
	}
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, validateConfig(validTestConfig()))
}

func TestValidateConfigInvalidPort(t *testing.T) {
	cfg := validTestConfig()
	cfg.Server.Port = 0
	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfigMissingDatabase(t *testing.T) {
	cfg := validTestConfig()
	cfg.Database.Consent.Database = ""
	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfigMissingStatusMapping(t *testing.T) {
	cfg := validTestConfig()
	cfg.Consent.StatusMappings.AmendedStatus = ""
	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfigNegativeValidity(t *testing.T) {
	cfg := validTestConfig()
	cfg.Consent.DefaultValidityPeriod = -1
	assert.Error(t, validateConfig(cfg))
}

func TestGetDSNMySQL(t *testing.T) {
	cfg := validTestConfig().Database.Consent
	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "user:pass@tcp(localhost:3306)/consentdb")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestGetDSNPostgres(t *testing.T) {
	cfg := validTestConfig().Database.Consent
	cfg.Type = "postgres"
	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=consentdb")
	assert.Contains(t, dsn, "sslmode=disable")
}
