package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger создает общий zap-логгер и устанавливает его глобальным.
// format: "json" или "console".
func InitLogger(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// Logger возвращает глобальный логгер
func Logger() *zap.Logger {
	return zap.L()
}

func sugar() *zap.SugaredLogger {
	return zap.L().WithOptions(zap.AddCallerSkip(1)).Sugar()
}

func LogInfo(format string, v ...interface{}) {
	sugar().Infof(format, v...)
}

func LogError(format string, v ...interface{}) {
	sugar().Errorf(format, v...)
}

func LogDebug(format string, v ...interface{}) {
	sugar().Debugf(format, v...)
}

func LogWarn(format string, v ...interface{}) {
	sugar().Warnf(format, v...)
}

// LogOperation логирует бизнес-операцию над сущностью (например, создание платежа)
func LogOperation(operation string, userID uint, entityID uint, details string) {
	zap.L().WithOptions(zap.AddCallerSkip(1)).Info("operation",
		zap.String("operation", operation),
		zap.Uint("user_id", userID),
		zap.Uint("entity_id", entityID),
		zap.String("details", details),
	)
}
