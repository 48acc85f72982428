package alertd_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alertd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: test-secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alertd", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "token", cfg.Auth.AccessCookie)
	assert.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)
	assert.Equal(t, "vigil-alerts", cfg.Feed.Topic)
	assert.Empty(t, cfg.Feed.Brokers)
	assert.Equal(t, 32, cfg.Hub.SessionBuffer)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  name: vigil-staging
  env: staging
server:
  http_addr: ":3000"
db:
  url: postgres://vigil:pw@db:5432/vigil
auth:
  jwt_secret: test-secret
  access_ttl: 5m
feed:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "vigil-staging", cfg.App.Name)
	assert.Equal(t, ":3000", cfg.Server.HTTPAddr)
	assert.Equal(t, "postgres://vigil:pw@db:5432/vigil", cfg.DB.URL)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Feed.Brokers)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	path := writeConfig(t, `
app:
  name: vigil
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}
