// internal/config/model.go
//
// Typed configuration model for Laxmi.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `LAXMI_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • Durations are written as Go duration strings (“5s”, “30m”).
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"time"

	"github.com/go-sql-driver/mysql"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr     string   `koanf:"listen_addr"     validate:"required,hostname_port"`
	ForceHTTPS     bool     `koanf:"force_https"`
	SecureCookies  bool     `koanf:"secure_cookies"`
	AllowedOrigins []string `koanf:"allowed_origins" validate:"dive,required"`
}

//
// Database section
//

// Database is the SQL connection shared by the account store and, when
// store.driver is “sql”, the record store.
//
// The DSN is kept in YAML so operators can tweak host, port, or flags
// without touching Vault.  For MySQL the password is stored separately
// (usually a `vault:` reference) and spliced in by DataSource.
type Database struct {
	Driver   string `koanf:"driver"   validate:"required,oneof=mysql sqlite"`
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password"`
	Migrate  bool   `koanf:"migrate"`
}

// DataSource returns the DSN with Password applied.
func (d Database) DataSource() (string, error) {
	if d.Driver != "mysql" || d.Password == "" {
		return d.DSN, nil
	}
	mc, err := mysql.ParseDSN(d.DSN)
	if err != nil {
		return "", err
	}
	mc.Passwd = d.Password
	return mc.FormatDSN(), nil
}

//
// Store section
//

// Store selects where form records are appended.
type Store struct {
	Driver        string `koanf:"driver"         validate:"required,oneof=memory sql redis"`
	RedisAddr     string `koanf:"redis_addr"     validate:"required_if=Driver redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisPrefix   string `koanf:"redis_prefix"`
}

//
// Auth section
//

// Auth tunes the local identity provider and CSRF guard.
type Auth struct {
	TokenSecret   string        `koanf:"token_secret"   validate:"required,min=16"`
	TokenTTL      time.Duration `koanf:"token_ttl"`
	MaxAttempts   int           `koanf:"max_attempts"   validate:"gte=0"`
	AttemptWindow time.Duration `koanf:"attempt_window"`
	CSRFSecret    string        `koanf:"csrf_secret"    validate:"required_unless=CSRFDisabled true"`
	CSRFDisabled  bool          `koanf:"csrf_disabled"`
}

//
// Notify section
//

// Notify configures the WhatsApp hand-off.
type Notify struct {
	WhatsAppNumber string `koanf:"whatsapp_number" validate:"required"`
	WebhookURL     string `koanf:"webhook_url"     validate:"omitempty,url"`
	QueueSize      int    `koanf:"queue_size"      validate:"gte=0"`
}

//
// Workflow section
//

// Workflow tunes form instances.  Zero values select package defaults.
type Workflow struct {
	NoticeDelay  time.Duration `koanf:"notice_delay"`
	CloseDelay   time.Duration `koanf:"close_delay"`
	IdleTTL      time.Duration `koanf:"idle_ttl"`
	MaxInstances int           `koanf:"max_instances" validate:"gte=0"`
}

//
// GeoIP section
//

// GeoIP points at an optional GeoLite2-City database.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or LAXMI_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // LAXMI_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Store    Store    `koanf:"store"`
	Auth     Auth     `koanf:"auth"`
	Notify   Notify   `koanf:"notify"`
	Workflow Workflow `koanf:"workflow"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
