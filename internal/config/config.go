package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds settings shared by every command.
type Config struct {
	GhostscriptPath string
	Timeout         time.Duration
	ExtraArgs       []string
	DPI             int
	JPEGQuality     int
	LockTargetDir   bool
	LogLevel        string
	LogFormat       string
}

// Load reads .env files (missing ones are ignored) and the environment, and
// returns the resulting Config with a logger configured from it.
func Load() (Config, *logrus.Logger) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("pdftools.env")

	cfg := Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	cfg.GhostscriptPath = getEnv("PDFTOOLS_GS_PATH", "gs")
	cfg.Timeout = getEnvDuration(logger, "PDFTOOLS_GS_TIMEOUT", 2*time.Minute)
	cfg.DPI = getEnvInt(logger, "PDFTOOLS_DPI", 300)
	cfg.JPEGQuality = getEnvInt(logger, "PDFTOOLS_JPEG_QUALITY", 100)
	cfg.LockTargetDir = getEnvBool(logger, "PDFTOOLS_LOCK_DIR", false)

	if raw := getEnv("PDFTOOLS_GS_EXTRA_ARGS", ""); raw != "" {
		args, err := shlex.Split(raw)
		if err != nil {
			logger.WithError(err).WithField("value", raw).Warn("Ignoring unparseable PDFTOOLS_GS_EXTRA_ARGS")
		} else {
			cfg.ExtraArgs = args
		}
	}

	logger.WithFields(logrus.Fields{
		"gs":      cfg.GhostscriptPath,
		"timeout": cfg.Timeout,
		"dpi":     cfg.DPI,
		"quality": cfg.JPEGQuality,
	}).Debug("Configuration loaded")

	return cfg, logger
}

// NewLogger builds a logrus logger writing to stderr. Unknown levels fall back
// to info, unknown formats to text.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(logger *logrus.Logger, key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil || intVal <= 0 {
		logger.WithFields(logrus.Fields{"key": key, "value": value}).Warn("Invalid integer, using default")
		return defaultValue
	}
	return intVal
}

func getEnvBool(logger *logrus.Logger, key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		logger.WithFields(logrus.Fields{"key": key, "value": value}).Warn("Invalid boolean, using default")
		return defaultValue
	}
	return boolVal
}

// getEnvDuration accepts Go durations ("90s") and bare seconds ("90"). Zero
// disables the limit.
func getEnvDuration(logger *logrus.Logger, key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		logger.WithFields(logrus.Fields{"key": key, "value": value}).Warn("Invalid duration, using default")
		return defaultValue
	}
	return d
}
