package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mfs-exporter/pkg/config"
)

type Logger = zap.Logger

const timeLayout = "2006-01-02 15:04:05.000 -07:00"

var (
	baseLogger       = zap.NewNop()
	defaultComponent = "exporter"
	initOnce         sync.Once
	mu               sync.RWMutex
)

// Init builds the process-wide logger once: console (or JSON) on stdout
// teed with JSON into daily rotated files under cfg.Path.
func Init(cfg config.ZapLogConfig) error {
	var err error
	initOnce.Do(func() {
		var l *zap.Logger
		l, err = build(cfg)
		if err != nil {
			return
		}
		mu.Lock()
		baseLogger = l
		mu.Unlock()
	})
	return err
}

func build(cfg config.ZapLogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, err
	}

	opts := []rotatelogs.Option{
		rotatelogs.WithRotationTime(24 * time.Hour),
		rotatelogs.WithRotationSize(int64(cfg.MaxSize) * 1024 * 1024),
	}
	// rotatelogs refuses both a max age and a rotation count.
	if cfg.MaxBackup > 0 {
		opts = append(opts, rotatelogs.WithRotationCount(uint(cfg.MaxBackup)))
	} else {
		opts = append(opts, rotatelogs.WithMaxAge(time.Duration(cfg.MaxAge)*24*time.Hour))
	}
	writer, err := rotatelogs.New(filepath.Join(cfg.Path, "mfs-exporter-%Y%m%d.log"), opts...)
	if err != nil {
		return nil, fmt.Errorf("open rotating log: %w", err)
	}

	jsonCfg := zap.NewProductionEncoderConfig()
	jsonCfg.TimeKey = "timestamp"
	jsonCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	jsonCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	stdoutEncoder := zapcore.NewJSONEncoder(jsonCfg)
	if cfg.Format == "console" {
		stdoutEncoder = zapcore.NewConsoleEncoder(consoleEncoderConfig())
	}

	core := zapcore.NewTee(
		zapcore.NewCore(stdoutEncoder, zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(writer), level),
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.ConsoleSeparator = " "
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("\033[34m" + t.Format(timeLayout) + "\033[0m")
	}
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	// parent dir + file, e.g. agent/agent.go:42
	encCfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		rel := filepath.Join(filepath.Base(filepath.Dir(c.File)), filepath.Base(c.File))
		enc.AppendString(fmt.Sprintf("%s:%d", rel, c.Line))
	}
	return encCfg
}

// SetDefaultComponent sets the component field attached by the package helpers.
func SetDefaultComponent(component string) {
	mu.Lock()
	defer mu.Unlock()
	defaultComponent = component
}

// GetDefaultComponent returns the component used by the package helpers.
func GetDefaultComponent() string {
	mu.RLock()
	defer mu.RUnlock()
	return defaultComponent
}

// With returns a logger scoped to component. It is a no-op logger until Init.
func With(component string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger.With(zap.String("component", component))
}

// GetLogger returns the process-wide logger.
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}

func goid() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// "goroutine 123 [running]:..."
	fields := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))
	if len(fields) > 0 {
		return fields[0]
	}
	return "0"
}

func log(level zapcore.Level, msg string, fields ...zap.Field) {
	mu.RLock()
	l := baseLogger
	component := defaultComponent
	mu.RUnlock()

	ce := l.WithOptions(zap.AddCallerSkip(2)).Check(level, msg)
	if ce == nil {
		return
	}
	ce.Write(append([]zap.Field{zap.String("component", component), zap.String("goid", goid())}, fields...)...)
}

func Debug(msg string, fields ...zap.Field) { log(zapcore.DebugLevel, msg, fields...) }
func Info(msg string, fields ...zap.Field)  { log(zapcore.InfoLevel, msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { log(zapcore.WarnLevel, msg, fields...) }
func Error(msg string, fields ...zap.Field) { log(zapcore.ErrorLevel, msg, fields...) }

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync() error {
	err := GetLogger().Sync()
	if err != nil && (strings.Contains(err.Error(), "/dev/stdout") || strings.Contains(err.Error(), "invalid argument")) {
		return nil
	}
	return err
}
