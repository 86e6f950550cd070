package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
}

// NewLogger builds a zap logger; format is "json" or "console".
func NewLogger(level, format string) *Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.EqualFold(format, "json") {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)
	return &Logger{Logger: zap.New(core, zap.AddCaller())}
}

func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

func (l *Logger) UpstreamCall(endpoint, target string) {
	l.Info("forwarding request",
		zap.String("type", "upstream"),
		zap.String("endpoint", endpoint),
		zap.String("target", target),
	)
}

func (l *Logger) UpstreamFailure(endpoint string, status int, err error) {
	l.Warn("upstream call failed",
		zap.String("type", "upstream"),
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
		zap.Error(err),
	)
}

func (l *Logger) RowResult(batch, row, status, message string) {
	l.Debug("row result",
		zap.String("type", "batch"),
		zap.String("batch", batch),
		zap.String("row", row),
		zap.String("status", status),
		zap.String("message", message),
	)
}

func (l *Logger) BatchSummary(batch string, success, fail int) {
	l.Info("batch upload finished",
		zap.String("type", "batch"),
		zap.String("batch", batch),
		zap.Int("success", success),
		zap.Int("fail", fail),
	)
}
