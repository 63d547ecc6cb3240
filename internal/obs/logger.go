package obs

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogConfig struct {
	Level  string
	Pretty bool
	App    string
	Env    string
	Ver    string
}

// DevEnv reports whether env names a developer environment.
func DevEnv(env string) bool {
	switch strings.ToLower(env) {
	case "development", "dev", "local", "test":
		return true
	}
	return false
}

// NewLogger builds a JSON logger stamped with service, env and version.
// Pretty switches to the colored console encoder.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	if c.Env == "" {
		c.Env = "production"
	}
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	encoding := "json"
	if c.Pretty {
		encoding = "console"
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       DevEnv(c.Env),
		DisableStacktrace: !DevEnv(c.Env),
		Encoding:          encoding,
		EncoderConfig:     enc,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields: map[string]any{
			"service": c.App,
			"env":     c.Env,
			"version": c.Ver,
		},
	}
	if !c.Pretty {
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}
	if host, err := os.Hostname(); err == nil {
		cfg.InitialFields["host"] = host
	}
	return cfg.Build()
}

// OrNop keeps constructors tolerant of a nil logger.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
