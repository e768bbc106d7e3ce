package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scality/utapi/schema"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	return v
}

func TestLoadRequiresComponent(t *testing.T) {
	v := newViper(t)
	_, err := Load(v)
	require.Error(t, err)
}

func TestLoadAppliesDefaultsAroundExplicitValues(t *testing.T) {
	v := newViper(t)
	v.Set("component", "s3")
	v.Set("redis.host", "redis.internal")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Component)
	assert.Equal(t, "redis.internal", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port, "unset redis.port falls back to default")
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8100, cfg.Port)
}

func TestLoadParsesMetricsGranularitySet(t *testing.T) {
	v := newViper(t)
	v.Set("component", "s3")
	v.Set("metrics", []string{"bucket", "account"})

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, []schema.Level{schema.LevelBucket, schema.LevelAccount}, cfg.Metrics)
}

func TestLoadRejectsUnrecognizedMetricsLevel(t *testing.T) {
	v := newViper(t)
	v.Set("component", "s3")
	v.Set("metrics", []string{"region"})

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoadParsesCredentials(t *testing.T) {
	v := newViper(t)
	v.Set("component", "s3")
	v.Set("credentials", []map[string]string{
		{"accessKey": "AKID", "secretKey": "secret", "accountId": "a1"},
	})

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Len(t, cfg.Credentials, 1)
	assert.Equal(t, Credential{AccessKey: "AKID", SecretKey: "secret", AccountID: "a1"}, cfg.Credentials[0])
}

func TestLoadRejectsCredentialMissingSecret(t *testing.T) {
	v := newViper(t)
	v.Set("component", "s3")
	v.Set("credentials", []map[string]string{{"accessKey": "AKID"}})

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoadRejectsNegativeWorkers(t *testing.T) {
	v := newViper(t)
	v.Set("component", "s3")
	v.Set("workers", 0)

	cfg, err := Load(v)
	require.NoError(t, err, "zero workers falls back to the default rather than failing validation")
	assert.Equal(t, 5, cfg.Workers)

	v.Set("workers", -1)
	_, err = Load(v)
	assert.Error(t, err)
}
