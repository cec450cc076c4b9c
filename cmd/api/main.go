package main

import (
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"neniwer/api/internal/jsonlog"
	"neniwer/api/internal/probe"
	"neniwer/api/internal/validator"
	"neniwer/api/internal/vcs"
)

const version = "3.0.0"

const (
	defaultPort = 8000
	defaultEnv  = "development"
)

type config struct {
	port     int
	env      string
	logLevel jsonlog.Level
	// Capability variables. Only their presence is reported.
	supabaseURL      string
	databaseURL      string
	huggingFaceToken string
	db               struct {
		driver  string
		timeout time.Duration
	}
	limiter struct {
		enable bool
		rps    float64
		burst  int
	}
	cors struct {
		trustedOrigins []string
	}
}

type application struct {
	logger *jsonlog.Logger
	cfg    config
	prober probe.Prober
	// done is closed on shutdown to stop background sweepers.
	done chan struct{}
}

func main() {
	logger := jsonlog.New(os.Stdout, jsonlog.InfoLevel)

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.FatalErr(fmt.Errorf("load .env: %w", err), nil)
	}

	cfg, err := loadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		logger.FatalErr(err, nil)
	}

	logger = jsonlog.New(os.Stdout, cfg.logLevel)

	expvar.NewString("version").Set(version)
	expvar.Publish("revision", expvar.Func(func() any {
		return vcs.Revision()
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("timestamp", expvar.Func(func() any {
		return time.Now().Unix()
	}))

	app := &application{
		logger: logger,
		cfg:    cfg,
		prober: probe.New(cfg.db.driver, cfg.db.timeout),
		done:   make(chan struct{}),
	}

	logger.Info("starting neniwer api", map[string]string{
		"version":  version,
		"revision": vcs.Revision(),
		"driver":   cfg.db.driver,
	})

	err = app.serve()
	if err != nil {
		logger.FatalErr(err, nil)
	}
}

// loadConfig reads the process environment and command-line flags into a
// config value. It is called once; the result is never modified afterwards.
func loadConfig(args []string, getenv func(string) string) (config, error) {
	var cfg config
	var logLevel string

	cfg.supabaseURL = getenv("SUPABASE_URL")
	cfg.databaseURL = getenv("DATABASE_URL")
	cfg.huggingFaceToken = getenv("HUGGINGFACE_TOKEN")

	port := defaultPort
	if p := getenv("PORT"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return cfg, fmt.Errorf("config: invalid PORT %q", p)
		}
		port = n
	}

	env := getenv("RAILWAY_ENVIRONMENT")
	if env == "" {
		env = defaultEnv
	}

	fset := flag.NewFlagSet("api", flag.ContinueOnError)
	fset.IntVar(&cfg.port, "port", port, "API server port")
	fset.StringVar(&cfg.env, "env", env, "Environment name reported by /config")
	fset.StringVar(&logLevel, "log-level", "info", "Minimum log level (info|error|fatal|off)")
	fset.StringVar(&cfg.db.driver, "db-driver", "postgres", "database/sql driver used by /test/database")
	fset.DurationVar(&cfg.db.timeout, "db-timeout", probe.DefaultTimeout, "Bound on one database connection attempt")
	fset.BoolVar(&cfg.limiter.enable, "limiter-enabled", false, "Enable per-client rate limiting")
	fset.Float64Var(&cfg.limiter.rps, "limiter-rps", 2, "Rate limiter maximum requests per second")
	fset.IntVar(&cfg.limiter.burst, "limiter-burst", 4, "Rate limiter maximum burst")
	fset.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(s string) error {
		cfg.cors.trustedOrigins = strings.Fields(s)
		return nil
	})

	err := fset.Parse(args)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	v := validator.New()
	v.CheckError(validator.PermittedValue(strings.ToLower(strings.TrimSpace(logLevel)), "info", "error", "fatal", "off"),
		"log_level", "must be one of info, error, fatal, off")
	validateConfig(v, cfg)
	if !v.IsValid() {
		return cfg, fmt.Errorf("config: %s", v.Error())
	}

	cfg.logLevel, err = jsonlog.ParseLevel(logLevel)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func validateConfig(v *validator.Validator, cfg config) {
	v.CheckError(validator.Between(cfg.port, 1, 65535), "port", "must be between 1 and 65535")
	v.CheckError(validator.NotBlank(cfg.env), "env", "must be provided")
	v.CheckError(validator.NotBlank(cfg.db.driver), "db_driver", "must be provided")
	v.CheckError(cfg.db.timeout > 0, "db_timeout", "must be greater than zero")

	if cfg.limiter.enable {
		v.CheckError(cfg.limiter.rps > 0, "limiter_rps", "must be greater than zero")
		v.CheckError(cfg.limiter.burst > 0, "limiter_burst", "must be greater than zero")
	}
}
