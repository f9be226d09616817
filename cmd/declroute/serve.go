package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/declroute/declroute/adapters/auth"
	"github.com/declroute/declroute/adapters/engine"
	"github.com/declroute/declroute/adapters/hasher"
	"github.com/declroute/declroute/adapters/idgen"
	"github.com/declroute/declroute/adapters/metrics"
	"github.com/declroute/declroute/adapters/sqlite"
	"github.com/declroute/declroute/app"
	"github.com/declroute/declroute/config"
	"github.com/declroute/declroute/core/openapi"
	"github.com/declroute/declroute/domain/route"
)

var (
	hotReload bool
	portFlag  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the example API server",
	Long: `Start the declroute example server.

The server registers a small user-management API through the declarative
route layer, serving:
  - the API itself under the configured base path
  - generated OpenAPI documentation at /docs and /docs/openapi.json
  - Prometheus metrics at /metrics
  - a health check at /healthz

Environment variables:
  DECLROUTE_SERVER_HOST     - Bind host (may embed a port)
  DECLROUTE_SERVER_PORT     - Server port (default: 8420)
  DECLROUTE_JWT_SECRET      - Secret for bearer token signing
  DECLROUTE_DATABASE_PATH   - SQLite path (default: declroute.db)
  DECLROUTE_LOG_LEVEL       - debug, info, warn, error`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, holder, err := loadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	if holder != nil {
		holder.OnChange(func(c *config.Config) {
			zerolog.SetGlobalLevel(parseLevel(c.Logging.Level))
		})
		if err := holder.WatchFile(); err != nil {
			logger.Warn().Err(err).Msg("config hot reload unavailable")
		}
		holder.WatchSignals()
		defer holder.Stop()
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	collector := metrics.New()

	eng := engine.New(logger, engine.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	eng.Mount("/metrics", collector.Handler())

	reg := app.NewRegistry(eng, app.Options{
		BasePath:    cfg.Server.BasePath,
		Host:        cfg.Server.Host,
		Docs:        docsInfo(cfg),
		DisableDocs: !cfg.Docs.Enabled,
		Verifier:    tokens,
		Middleware: []route.Middleware{
			engine.AccessLog(logger),
			collector.Middleware(),
			engine.CORS(cfg.Server.CORSOrigin),
		},
		Logger: logger,
	})

	registerExampleRoutes(reg, exampleDeps{
		users:  sqlite.NewUserStore(db),
		hasher: hasher.NewBcrypt(0),
		ids:    idgen.UUID{},
		signer: tokens,
	})

	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}
	printBanner(cfg.Server.Host, port)

	return reg.Run(port)
}

func loadConfig() (*config.Config, *config.Holder, error) {
	if _, err := os.Stat(cfgFile); err == nil && hotReload {
		holder, err := config.NewHolder(cfgFile, zerolog.New(os.Stderr).With().Timestamp().Logger())
		if err != nil {
			return nil, nil, err
		}
		return holder.Get(), holder, nil
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, nil, nil
}

func docsInfo(cfg *config.Config) openapi.Info {
	return openapi.Info{
		Title:       cfg.Docs.Title,
		Description: cfg.Docs.Description,
		Version:     cfg.Docs.Version,
	}
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// printBanner lists the addresses the server will be reachable on. Purely
// diagnostic; failures are ignored.
func printBanner(host string, port int) {
	if port <= 0 {
		port = app.DefaultPort
	}
	if h, p, err := net.SplitHostPort(host); err == nil {
		host = h
		if n, convErr := strconv.Atoi(p); convErr == nil && n > 0 {
			port = n
		}
	}

	fmt.Printf("declroute %s\n", version)
	if host != "" && host != "0.0.0.0" && host != "::" {
		fmt.Printf("  http://%s\n", net.JoinHostPort(host, strconv.Itoa(port)))
		return
	}

	ifaces, err := net.InterfaceAddrs()
	if err != nil {
		fmt.Printf("  http://localhost:%d\n", port)
		return
	}
	for _, addr := range ifaces {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.To4() == nil {
			continue
		}
		ip := ipNet.IP.String()
		if strings.HasPrefix(ip, "169.254.") {
			continue
		}
		fmt.Printf("  http://%s:%d\n", ip, port)
	}
}
