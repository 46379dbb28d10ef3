package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  http:
    addr: 0.0.0.0:8000
    timeout: 5s
data:
  database:
    driver: mysql
    source: root:root@tcp(127.0.0.1:3306)/settlement?parseTime=true
gateway:
  base_url: https://api.example.test
  timeout: 10s
payout:
  max_attempts: 3
  cron_secret: from-file
log:
  level: debug
`

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "0.0.0.0:8000", c.Server.Http.Addr)
	assert.Equal(t, "https://api.example.test", c.Gateway.BaseURL)
	assert.Equal(t, 3, c.Payout.MaxAttempts)
	assert.Equal(t, DefaultCronLimit, c.Payout.CronLimit)
	assert.Equal(t, DefaultCurrency, c.Payout.Currency)
	assert.Equal(t, DefaultTopic, c.Messaging.Topic)
	assert.NotEmpty(t, c.Cron.DisburseSpec)
}

func TestApplyEnv(t *testing.T) {
	c := &Bootstrap{}
	c.SetDefaults()
	env := map[string]string{
		"GATEWAY_ACCESS_TOKEN":     "token-123",
		"PAYOUT_TRANSFERS_ENABLED": "true",
		"PAYOUT_MAX_ATTEMPTS":      "7",
		"CRON_PAYOUT_LIMIT":        "20",
		"CRON_SECRET":              "s3cret",
		"PAYOUT_ALERT_WEBHOOK_URL": "https://hooks.example.test/alerts",
		"KAFKA_BROKERS":            "k1:9092,k2:9092",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	require.NoError(t, c.ApplyEnv(lookup))
	assert.Equal(t, "token-123", c.Gateway.AccessToken)
	assert.True(t, c.Payout.TransfersEnabled)
	assert.Equal(t, 7, c.Payout.MaxAttempts)
	assert.Equal(t, 20, c.Payout.CronLimit)
	assert.Equal(t, "s3cret", c.Payout.CronSecret)
	assert.Equal(t, "https://hooks.example.test/alerts", c.Alert.WebhookURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Messaging.Brokers)
}

func TestApplyEnv_Invalid(t *testing.T) {
	c := &Bootstrap{}
	c.SetDefaults()

	err := c.ApplyEnv(func(k string) (string, bool) {
		if k == "PAYOUT_MAX_ATTEMPTS" {
			return "zero", true
		}
		return "", false
	})
	assert.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, c.Payout.MaxAttempts)
}

func TestValidate(t *testing.T) {
	c := &Bootstrap{}
	c.SetDefaults()
	assert.Error(t, c.Validate())

	c.Server.Http.Addr = ":8000"
	c.Data.Database.Source = "file::memory:"
	assert.NoError(t, c.Validate())

	c.Gateway.Timeout = "ten seconds"
	assert.Error(t, c.Validate())
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, Duration("", 3*time.Second))
	assert.Equal(t, 3*time.Second, Duration("bogus", 3*time.Second))
	assert.Equal(t, 250*time.Millisecond, Duration("250ms", time.Second))
}
