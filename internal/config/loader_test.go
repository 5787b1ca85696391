package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
http:
  listen_addr: ":8080"
  allowed_origins: ["https://laxmipaan.in"]
database:
  driver: sqlite
  dsn: ":memory:"
store:
  driver: memory
auth:
  token_secret: "0123456789abcdef"
  csrf_secret: "vault:secret/laxmi#csrf"
  token_ttl: 12h
notify:
  whatsapp_number: "+91 96739 61161"
workflow:
  notice_delay: 5s
  close_delay: 1500ms
`

type fakeSecrets map[string]string

func (f fakeSecrets) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := f[ref]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func writeRoot(t *testing.T, yaml string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644))
	t.Setenv("LAXMI_ROOT", root)
}

func TestLoad_LayersAndSecrets(t *testing.T) {
	writeRoot(t, baseYAML)
	t.Setenv("LAXMI_STORE__DRIVER", "redis")
	t.Setenv("LAXMI_STORE__REDIS_ADDR", "10.0.0.5:6379")

	cfg, err := Load(context.Background(), fakeSecrets{"vault:secret/laxmi#csrf": "from-vault"})
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "10.0.0.5:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "from-vault", cfg.Auth.CSRFSecret)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Workflow.CloseDelay)
	assert.Equal(t, []string{"https://laxmipaan.in"}, cfg.HTTP.AllowedOrigins)
	assert.Same(t, cfg, Get())
}

func TestLoad_VaultRefWithoutSource(t *testing.T) {
	writeRoot(t, baseYAML)
	_, err := Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSecretSource)
}

func TestLoad_ValidationFails(t *testing.T) {
	writeRoot(t, baseYAML)
	t.Setenv("LAXMI_STORE__DRIVER", "redis") // no redis_addr
	_, err := Load(context.Background(), fakeSecrets{"vault:secret/laxmi#csrf": "x"})
	assert.Error(t, err)

	t.Setenv("LAXMI_STORE__DRIVER", "memory")
	t.Setenv("LAXMI_NOTIFY__WHATSAPP_NUMBER", "call us")
	_, err = Load(context.Background(), fakeSecrets{"vault:secret/laxmi#csrf": "x"})
	assert.Error(t, err)
}

func TestDataSource(t *testing.T) {
	d := Database{Driver: "mysql", DSN: "laxmi@tcp(db:3306)/laxmi?parseTime=true", Password: "pw"}
	got, err := d.DataSource()
	require.NoError(t, err)
	assert.Contains(t, got, "laxmi:pw@tcp(db:3306)/laxmi")

	d = Database{Driver: "sqlite", DSN: ":memory:", Password: "ignored"}
	got, _ = d.DataSource()
	assert.Equal(t, ":memory:", got)
}
