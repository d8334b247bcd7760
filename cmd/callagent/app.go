package main

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dukerupert/callagent/internal/apiclient"
	"github.com/dukerupert/callagent/internal/auth"
	"github.com/dukerupert/callagent/internal/cache"
	"github.com/dukerupert/callagent/internal/calendar"
	"github.com/dukerupert/callagent/internal/config"
	"github.com/dukerupert/callagent/internal/contact"
	"github.com/dukerupert/callagent/internal/database"
	"github.com/dukerupert/callagent/internal/export"
	"github.com/dukerupert/callagent/internal/logging"
	"github.com/dukerupert/callagent/internal/middleware"
	"github.com/dukerupert/callagent/internal/notify"
	"github.com/dukerupert/callagent/internal/store"
	"github.com/dukerupert/callagent/internal/vault"
)

// app carries the flags and the services built from configuration. Services
// are created once per invocation in setup.
type app struct {
	cfgFile  string
	logLevel string
	quiet    bool

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	cfg        *config.Config
	logger     *slog.Logger
	db         *sql.DB
	cache      *cache.Store
	auth       *auth.Provider
	api        *apiclient.Client
	httpClient *http.Client
	notifier   notify.Notifier
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.cfg != nil {
		return nil
	}

	v, err := config.New()
	if err != nil {
		return err
	}
	cfg, err := config.Load(v, a.cfgFile)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.logger = logging.Setup(level, cfg.Log.Format, a.errOut)

	if _, err := cfg.ConfigDir(); err != nil {
		return err
	}
	db, err := database.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}

	if a.quiet {
		a.notifier = notify.Log{Logger: a.logger.With("component", "notify")}
	} else {
		a.notifier = notify.NewTerminal(a.errOut)
	}

	a.cfg = cfg
	a.db = db
	a.cache = cache.NewStore(cache.Options{MaxSize: cfg.Cache.MaxSize, DefaultTTL: cfg.Cache.DefaultTTL})
	a.auth = auth.NewProvider(store.NewCredentialStore(db), vault.New(cfg.Vault.Passphrase), a.cache, a.logger.With("component", "auth"))
	a.httpClient = &http.Client{
		Timeout:   cfg.API.Timeout,
		Transport: middleware.RequestLogger(a.logger.With("component", "http"), nil),
	}
	a.api = apiclient.NewClient(cfg.API.URL, a.auth,
		apiclient.WithHTTPClient(a.httpClient),
		apiclient.WithCallBaseURL(cfg.API.CallURL),
		apiclient.WithLeadBaseURL(cfg.API.LeadURL),
		apiclient.WithCache(a.cache),
		apiclient.WithLogger(a.logger.With("component", "api")),
	)
	a.logger.Debug("configured", "api", cfg.API.URL, "call_api", cfg.API.CallURL, "lead_api", cfg.API.LeadURL, "db", cfg.DB.Path)

	sess, err := a.auth.Session(cmd.Context())
	switch {
	case err == nil:
		cmd.SetContext(auth.WithSession(cmd.Context(), sess))
	case !errors.Is(err, auth.ErrNotAuthenticated):
		a.logger.Warn("stored session unreadable", "error", err)
	}
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

func (a *app) calendarClient() *calendar.Client {
	return calendar.NewClient(a.cfg.API.URL, a.auth,
		calendar.WithHTTPClient(a.httpClient),
		calendar.WithNotifier(a.notifier),
		calendar.WithLogger(a.logger),
		calendar.WithOpener(func(u string) error {
			fmt.Fprintf(a.out, "Open this URL to authorize Google Calendar:\n\n  %s\n\n", u)
			fmt.Fprintln(a.out, "Then run: callagent calendar complete <code> <state>")
			return nil
		}),
	)
}

// streamClient shares the logging transport but has no overall timeout, which
// the WebSocket dialer rejects. Streams are bounded by their context instead.
func (a *app) streamClient() *http.Client {
	return &http.Client{Transport: a.httpClient.Transport}
}

func (a *app) contactClient() *contact.Client {
	return contact.NewClient(a.cfg.Web3Forms.AccessKey,
		contact.WithEndpoint(a.cfg.Web3Forms.Endpoint),
		contact.WithHTTPClient(a.httpClient),
	)
}

func (a *app) exporter(dir string) *export.Exporter {
	ec := a.cfg.Export
	if dir == "" {
		dir = ec.Dir
	}
	return export.NewExporter(export.Config{
		Dir: dir,
		BOM: ec.BOM,
		S3: export.S3Config{
			Endpoint:  ec.S3.Endpoint,
			Bucket:    ec.S3.Bucket,
			Region:    ec.S3.Region,
			AccessKey: ec.S3.AccessKey,
			SecretKey: ec.S3.SecretKey,
			Prefix:    ec.S3.Prefix,
		},
	}, a.logger)
}
