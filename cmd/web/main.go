// cmd/web/main.go
//
// Laxmi – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Start daily rotating logger (tees to console when running in a TTY).
//
//  2. Connect to Vault when VAULT_ADDR is set, then load configuration
//     (YAML → .env → LAXMI_ env, vault: references resolved).
//
//  3. Open the SQL database and apply embedded migrations.
//
//  4. Build the record store (memory, sql, or redis), the identity
//     provider, the dispatch queue, and the form registry.
//
//  5. Register components and assemble the root handler.
//
//  6. Run the HTTP server, the form evictor, and the session janitor under
//     one errgroup; SIGINT or SIGTERM shuts everything down in reverse.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/laxmi/components/account"
	"github.com/yanizio/laxmi/components/forms"
	"github.com/yanizio/laxmi/internal/component"
	"github.com/yanizio/laxmi/internal/config"
	"github.com/yanizio/laxmi/internal/database"
	"github.com/yanizio/laxmi/internal/form"
	"github.com/yanizio/laxmi/internal/identity"
	"github.com/yanizio/laxmi/internal/logger"
	"github.com/yanizio/laxmi/internal/message"
	"github.com/yanizio/laxmi/internal/notify"
	"github.com/yanizio/laxmi/internal/record"
	"github.com/yanizio/laxmi/internal/requestinfo"
	"github.com/yanizio/laxmi/internal/server"
	"github.com/yanizio/laxmi/internal/session"
	"github.com/yanizio/laxmi/internal/vault"
	"github.com/yanizio/laxmi/internal/workflow"
)

const janitorInterval = time.Minute

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	logOut, err := logger.New(config.Root(), runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer logOut.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logOut); err != nil {
		logOut.Fatalw("laxmi stopped", "err", err)
	}
	logOut.Infow("laxmi stopped cleanly")
}

func run(ctx context.Context, logOut *zap.SugaredLogger) error {
	//
	// ── 1.  Secrets and configuration ───────────────────────────────────
	//
	var secrets config.SecretSource
	if config.NeedsVault() {
		vc, err := vault.New(ctx, logOut)
		if err != nil {
			return err
		}
		secrets = vc
	}
	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return err
	}

	//
	// ── 2.  Database ────────────────────────────────────────────────────
	//
	if cfg.Database.Driver == database.SQLite {
		if err := ensureDataDir(cfg.Database.DSN); err != nil {
			return err
		}
	}
	dsn, err := cfg.Database.DataSource()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.Database.Migrate {
		if err := database.Migrate(db, cfg.Database.Driver); err != nil {
			return err
		}
	}
	logOut.Infow("database online", "driver", cfg.Database.Driver)

	checks := map[string]server.Check{"database": db.PingContext}

	//
	// ── 3.  Record store ────────────────────────────────────────────────
	//
	var store record.Store
	switch cfg.Store.Driver {
	case "memory":
		store = record.NewMemory()
	case "sql":
		store = record.NewSQL(db)
	case "redis":
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
		})
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			return err
		}
		store = record.NewRedis(rc, cfg.Store.RedisPrefix)
		checks["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
	}
	records := record.NewClient(store, logOut)
	logOut.Infow("record store online", "driver", cfg.Store.Driver)

	//
	// ── 4.  Identity, dispatch, and workflow ────────────────────────────
	//
	provider, err := identity.NewLocal(db, identity.Options{
		Secret:        []byte(cfg.Auth.TokenSecret),
		TokenTTL:      cfg.Auth.TokenTTL,
		MaxAttempts:   cfg.Auth.MaxAttempts,
		AttemptWindow: cfg.Auth.AttemptWindow,
	}, logOut)
	if err != nil {
		return err
	}

	queue := message.New(message.Options{
		Size:       cfg.Notify.QueueSize,
		WebhookURL: cfg.Notify.WebhookURL,
		Log:        logOut,
	})

	registry := workflow.NewRegistry(workflow.DefaultDefinitions(), workflow.Deps{
		Records:     records,
		Notifier:    notify.New(cfg.Notify.WhatsAppNumber, queue),
		NoticeDelay: cfg.Workflow.NoticeDelay,
		CloseDelay:  cfg.Workflow.CloseDelay,
		Log:         logOut,
	}, cfg.Workflow.IdleTTL, cfg.Workflow.MaxInstances)

	watcher := session.NewWatcher(logOut)
	accounts := workflow.NewAccounts(provider, records, watcher, nil, logOut)
	cookies := session.NewManager(provider, cfg.HTTP.SecureCookies, logOut)

	guard, err := form.NewGuard([]byte(cfg.Auth.CSRFSecret), cfg.Auth.CSRFDisabled)
	if err != nil {
		return err
	}

	var geo requestinfo.GeoLookup
	if cfg.GeoIP.DBPath != "" {
		g, closeGeo, err := requestinfo.OpenGeo(cfg.GeoIP.DBPath)
		if err != nil {
			return err
		}
		defer closeGeo()
		geo = g
	}

	//
	// ── 5.  Components and root handler ─────────────────────────────────
	//
	comps := component.NewRegistry()
	comps.Register(forms.New(registry, logOut))
	comps.Register(account.New(accounts, cookies, logOut))
	comps.Register(account.NewEvents(watcher, originHosts(cfg.HTTP.AllowedOrigins), logOut))

	srv := server.New(cfg.HTTP.ListenAddr, server.Router(server.RouterDeps{
		ForceHTTPS:     cfg.HTTP.ForceHTTPS,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Components:     comps,
		Cookies:        cookies,
		CSRF:           guard,
		Info:           requestinfo.NewEnricher(geo, logOut),
		Health:         server.NewHealth(checks),
	}))

	//
	// ── 6.  Run until signalled ─────────────────────────────────────────
	//
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return registry.Run(gctx) })
	g.Go(func() error { return provider.Janitor(gctx, janitorInterval) })
	g.Go(func() error {
		<-gctx.Done()
		logOut.Infow("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
		defer cancel()
		// Shutdown skips hijacked websockets; comps.Close closes those.
		err := srv.Shutdown(sctx)
		_ = queue.Close()
		_ = comps.Close()
		return err
	})

	return g.Wait()
}

// ensureDataDir creates the directory holding a file-backed SQLite DSN.
func ensureDataDir(dsn string) error {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return nil
}

// originHosts turns CORS origins into websocket origin host patterns.
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	return out
}
