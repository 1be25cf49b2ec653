package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TimeLayout renders entry timestamps, e.g. 19-Oct-26 08:00:00.
const TimeLayout = "02-Jan-06 15:04:05"

const DefaultFilename = "networkinfo.log"

type Options struct {
	Dir      string
	Filename string // defaults to DefaultFilename
	Level    string // debug, info, warn, error; empty means info
	Location *time.Location
	Console  zapcore.WriteSyncer // defaults to stdout
}

// NewLogger writes human-readable lines to the console and JSON lines to a
// rotating file under Dir.
func NewLogger(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	name := opts.Filename
	if name == "" {
		name = DefaultFilename
	}
	console := opts.Console
	if console == nil {
		console = zapcore.Lock(os.Stdout)
	}

	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, name),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = timeEncoder(opts.Location)

	consoleCfg := cfg
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), console, level),
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), file, level),
	)
	return zap.New(core), nil
}

func timeEncoder(loc *time.Location) zapcore.TimeEncoder {
	if loc == nil {
		loc = time.Local
	}
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format(TimeLayout))
	}
}
