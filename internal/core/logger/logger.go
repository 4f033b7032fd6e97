package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileRotate enables a lumberjack-rotated copy of the log stream.
type FileRotate struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Options struct {
	Level   string // debug / info / warn / error
	JSON    bool   // JSON lines for production, colored console otherwise
	Service string // stamped on every entry as "service"
	Env     string
	Rotate  *FileRotate
}

// Build assembles a sampled zap logger writing to stdout and, when Rotate is
// set, to a rotated file. An unknown level falls back to info. The returned
// func flushes buffered entries and closes the file.
func Build(opt Options) (*zap.Logger, func()) {
	var lvl zapcore.Level
	if err := lvl.Set(opt.Level); err != nil {
		lvl = zapcore.InfoLevel
	}

	enc := consoleEncoder()
	if opt.JSON {
		enc = jsonEncoder()
	}
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)}

	var rotator *lumberjack.Logger
	if opt.Rotate != nil && opt.Rotate.Filename != "" {
		rotator = &lumberjack.Logger{
			Filename:   opt.Rotate.Filename,
			MaxSize:    max(1, opt.Rotate.MaxSizeMB),
			MaxBackups: max(0, opt.Rotate.MaxBackups),
			MaxAge:     max(0, opt.Rotate.MaxAgeDays),
			Compress:   opt.Rotate.Compress,
		}
		// files always get JSON so they can be shipped as-is
		cores = append(cores, zapcore.NewCore(jsonEncoder(), zapcore.AddSync(rotator), lvl))
	}

	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)
	zopts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if !opt.JSON {
		zopts = append(zopts, zap.Development())
	}
	var fields []zap.Field
	if opt.Service != "" {
		fields = append(fields, zap.String("service", opt.Service))
	}
	if opt.Env != "" {
		fields = append(fields, zap.String("env", opt.Env))
	}
	if len(fields) > 0 {
		zopts = append(zopts, zap.Fields(fields...))
	}

	l := zap.New(core, zopts...)
	return l, func() {
		_ = l.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// RedirectStdLog routes the standard library logger (used by the amqp client
// and third-party packages) into l. The returned func restores it.
func RedirectStdLog(l *zap.Logger, level zapcore.Level) func() {
	undo, err := zap.RedirectStdLogAt(l, level)
	if err != nil {
		return func() {}
	}
	return undo
}
