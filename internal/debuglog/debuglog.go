// ABOUTME: Debug logger that writes JSON lines to a rotating file
// ABOUTME: Keeps log output away from the terminal the TUI is drawing on

package debuglog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file created inside the config directory.
const FileName = "debug.log"

var (
	mu       sync.RWMutex
	logger   = zap.NewNop()
	rotation *lumberjack.Logger
)

// Options controls where and how much is logged.
type Options struct {
	// Path overrides <configDir>/debug.log.
	Path  string
	Level string
}

// Init starts logging into configDir. An empty configDir with no Path
// disables logging.
func Init(configDir string, opts Options) error {
	path := opts.Path
	if path == "" {
		if configDir == "" {
			Close()
			return nil
		}
		path = filepath.Join(configDir, FileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	rl := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	l := newZap(rl, level)

	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	logger = l
	rotation = rl
	return nil
}

func newZap(rl *lumberjack.Logger, level zapcore.Level) *zap.Logger {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(config), zapcore.AddSync(rl), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Close flushes and closes the log file. Logging is disabled afterwards.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	logger.Sync()
	if rotation != nil {
		rotation.Close()
		rotation = nil
	}
	logger = zap.NewNop()
}

// L returns the current logger for injection into components.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Log writes a formatted info message.
func Log(format string, args ...interface{}) {
	L().Sugar().Infof(format, args...)
}

// Error logs err with the operation it came from.
func Error(context string, err error) {
	if err == nil {
		return
	}
	L().Error(context, zap.Error(err))
}

// Warn writes a formatted warning.
func Warn(format string, args ...interface{}) {
	L().Sugar().Warnf(format, args...)
}
