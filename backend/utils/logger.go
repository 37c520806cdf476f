package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig определяет конфигурацию для логгера
type LoggerConfig struct {
	// dev or prod; prod writes JSON
	Mode string
	// debug, info, warn, error
	Level string
}

// Logger is a thin key/value facade over zap's SugaredLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// InitLogger инициализирует и возвращает логгер
func InitLogger(config ...LoggerConfig) *Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	var zcfg zap.Config
	switch strings.ToLower(cfg.Mode) {
	case "prod", "production":
		zcfg = zap.NewProductionConfig()
	default:
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if cfg.Level != "" {
		if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
			zcfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	zcfg.InitialFields = map[string]interface{}{"app": "courses-platform"}

	z, err := zcfg.Build()
	if err != nil {
		z = zap.NewExample()
		z.Warn("falling back to example logger", zap.Error(err))
	}
	return &Logger{sugar: z.Sugar()}
}

// NewLogger wraps an already configured zap logger.
func NewLogger(z *zap.Logger) *Logger {
	return &Logger{sugar: z.Sugar()}
}

// NewNopLogger discards everything; used by tests and the admin CLI.
func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() { _ = l.sugar.Sync() }

func (l *Logger) Debug(msg string, kv ...interface{}) { l.sugar.Debugw(msg, redact(kv)...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.sugar.Infow(msg, redact(kv)...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.sugar.Warnw(msg, redact(kv)...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.sugar.Errorw(msg, redact(kv)...) }
func (l *Logger) Fatal(msg string, kv ...interface{}) { l.sugar.Fatalw(msg, redact(kv)...) }

func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(redact(kv)...)}
}

func redact(kv []interface{}) []interface{} {
	if len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		if isSecretKey(fmt.Sprint(out[i])) {
			out[i+1] = "[REDACTED]"
		}
	}
	return out
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range []string{"password", "token", "secret", "authorization", "api_key"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
