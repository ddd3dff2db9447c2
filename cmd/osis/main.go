// Package main provides the osis binary: a command line front end to the
// class and attribution use cases, backed by PostgreSQL with an optional
// Redis tutor cache.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/osis-hub/osis-attribution/config"
	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
	"github.com/osis-hub/osis-attribution/internal/infrastructure/persistence/postgres"
	"github.com/osis-hub/osis-attribution/internal/infrastructure/persistence/redis"
	"github.com/osis-hub/osis-attribution/pkg/circuitbreaker"
	"github.com/osis-hub/osis-attribution/pkg/logger"
)

const (
	Version = "0.1.0"
	appName = "osis"

	// exitBusiness is returned when a use case rejected the request.
	exitBusiness = 2
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(3)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

// reportError prints err and returns the process exit code. Business
// errors are listed one per line, labelled by kind.
func reportError(w io.Writer, err error) int {
	if shared.IsBusiness(err) {
		for _, e := range shared.BusinessErrors(err) {
			_, _ = fmt.Fprintf(w, "%s: %v\n", businessLabel(e), e)
		}
		return exitBusiness
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}

func businessLabel(err error) string {
	switch {
	case shared.IsValidation(err):
		return "invalid"
	case shared.IsNotFound(err):
		return "not found"
	case shared.IsAlreadyExists(err):
		return "conflict"
	default:
		return "rejected"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROOT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	noCache    bool
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Manage effective classes and tutor volume repartitions",
		Long: `osis manages the effective classes of learning units and the
distribution of class volumes to tutors under their attributions.

Every write runs in a single database transaction. Business rule
violations are printed one per line and exit with status 2.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file overlaid on environment values")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.noCache, "no-cache", false, "Bypass the Redis tutor cache")

	cmd.AddCommand(
		migrateCmd(opts),
		seedCmd(opts),
		distributeCmd(opts),
		editVolumeCmd(opts),
		unassignCmd(opts),
		createClassCmd(opts),
		updateClassCmd(opts),
		deleteClassCmd(opts),
		canCreateClassCmd(opts),
		warningsCmd(opts),
		tutorCmd(opts),
		attributionsCmd(opts),
		cacheCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION WIRING
// ══════════════════════════════════════════════════════════════════════════════

// app holds the infrastructure one command invocation works with.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	conn  *postgres.Connection
	cache *redis.Cache

	units        *postgres.LearningUnitRepository
	classes      *postgres.EffectiveClassRepository
	tutors       attribution.TutorRepository
	attributions *postgres.TutorAttributionTranslator
}

func loadConfig(opts *globalOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFile(opts.configPath)
	}
	return config.Load()
}

func newLogger(cfg *config.Config, override string) *logger.Logger {
	level := cfg.Observability.LogLevel
	if override != "" {
		level = override
	}
	return logger.New(logger.Options{
		Output:    os.Stderr,
		Level:     logger.ParseLevel(level),
		Format:    logger.Format(cfg.Observability.LogFormat),
		AddCaller: cfg.IsDevelopment(),
	})
}

// openApp loads configuration and connects to the stores.
func openApp(ctx context.Context, opts *globalOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg, opts.logLevel)

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("no database configured: set DATABASE_URL or DB_HOST/DB_USER")
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	pgCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	pgCfg.OnConnectRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("database not ready, retrying",
			logger.Int("attempt", attempt),
			logger.Err(err),
			logger.Duration("delay", delay),
		)
	}

	conn, err := postgres.NewConnection(ctx, pgCfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:          cfg,
		log:          log,
		conn:         conn,
		units:        postgres.NewLearningUnitRepository(conn),
		classes:      postgres.NewEffectiveClassRepository(conn),
		attributions: postgres.NewTutorAttributionTranslator(conn),
	}

	var tutors attribution.TutorRepository = postgres.NewTutorRepository(conn)
	if !cfg.Redis.Disabled && !opts.noCache {
		cache, err := redis.NewCache(ctx, redisConfig(cfg.Redis))
		if err != nil {
			log.Warn("redis unavailable, running without tutor cache", logger.Err(err))
		} else {
			a.cache = cache
			breaker := circuitbreaker.CacheBreaker("tutor-cache", func(name string, from, to circuitbreaker.State) {
				log.Warn("cache circuit changed state",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			})
			store := redis.NewBreakerStore(cache, breaker)
			tutors = redis.NewCachedTutorRepository(tutors, store, cfg.Redis.TutorCacheTTL, log)
		}
	}
	a.tutors = tutors

	return a, nil
}

func redisConfig(c config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = c.Host
	rc.Port = c.Port
	rc.Password = c.Password
	rc.DB = c.DB
	if c.PoolSize > 0 {
		rc.PoolSize = c.PoolSize
	}
	if c.DialTimeout > 0 {
		rc.DialTimeout = c.DialTimeout
	}
	if c.ReadTimeout > 0 {
		rc.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		rc.WriteTimeout = c.WriteTimeout
	}
	return rc
}

// Close releases every connection.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("failed to close redis", logger.Err(err))
		}
	}
	a.conn.Close()
	_ = a.log.Sync()
}

// withApp opens the app, applies the command timeout and closes everything
// once fn returns.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.App.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.App.CommandTimeout)
		defer cancel()
	}

	start := time.Now()
	err = fn(logger.WithContext(ctx, a.log), a)
	a.log.Debug("command finished", logger.Operation(cmd.Name()), logger.Latency(time.Since(start)))
	return err
}

// inTx is withApp with fn wrapped in one database transaction.
func inTx(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, a *app) error) error {
	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		return a.conn.RunInTx(ctx, func(ctx context.Context) error {
			return fn(ctx, a)
		})
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
