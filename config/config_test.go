package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  snapshot_collected_topic_name: "snapshot.collected"
redis:
  host: "localhost"
  port: 6379
crm:
  base_url: "https://crm.example.com/api"
  page_size: 50
carrier:
  mode: "novaposhta"
  api_keys: ["k1", "k2"]
shipreport:
  http_addr: ":8080"
  timezone: "Europe/Kyiv"
  collect_hour: 23
  collect_minute: 50
`), 0o600))

	t.Setenv("CRM_TOKEN", "secret")
	t.Setenv("NP_KEY_1", "")
	t.Setenv("NP_API_KEY", "")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "snapshot.collected", cfg.SnapshotTopic())
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.ShipReport.HTTPAddr)
	require.Equal(t, "secret", cfg.CRM.Token)
	require.Equal(t, []string{"k1", "k2"}, cfg.Carrier.APIKeys)
	require.Equal(t, "postgres://u:p@localhost:5432/db?sslmode=disable", cfg.PostgresConnString())
}

func TestLoadConfig_CollectTime(t *testing.T) {
	dir := t.TempDir()

	p := filepath.Join(dir, "default.yaml")
	require.NoError(t, os.WriteFile(p, []byte("shipreport:\n  timezone: \"UTC\"\n"), 0o600))
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, 23, cfg.ShipReport.CollectHour)
	require.Equal(t, 50, cfg.ShipReport.CollectMinute)

	p = filepath.Join(dir, "midnight.yaml")
	require.NoError(t, os.WriteFile(p, []byte("shipreport:\n  collect_hour: 0\n  collect_minute: 0\n"), 0o600))
	cfg, err = LoadConfig(p)
	require.NoError(t, err)
	require.Zero(t, cfg.ShipReport.CollectHour)
	require.Zero(t, cfg.ShipReport.CollectMinute)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
shipreport:
  collect_hour: 25
`), 0o600))

	_, err := LoadConfig(p)
	require.Error(t, err)
}

func TestApplyEnv_CarrierKeys(t *testing.T) {
	env := map[string]string{
		"NP_KEY_1":   "a",
		"NP_KEY_2":   "b",
		"NP_KEY_4":   "skipped",
		"NP_API_KEY": "legacy",
		"CRM_URL":    "https://crm.example.com/api/",
	}
	var c Config
	c.applyEnv(func(k string) string { return env[k] })
	require.Equal(t, []string{"a", "b"}, c.Carrier.APIKeys)
	require.Equal(t, "https://crm.example.com/api", c.CRM.BaseURL)

	var legacy Config
	legacy.applyEnv(func(k string) string {
		if k == "NP_API_KEY" {
			return "legacy"
		}
		return ""
	})
	require.Equal(t, []string{"legacy"}, legacy.Carrier.APIKeys)
}
