package utils

import (
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/cppla/yatube/config"
)

var (
	// Logger is the global structured logger; a no-op until InitLogger runs.
	Logger = zap.NewNop()
	// Sugar is a sugared logger for convenience
	Sugar = Logger.Sugar()
)

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	MessageKey:     "msg",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.LowercaseLevelEncoder,
	EncodeTime:     timeEncoder,
	EncodeDuration: zapcore.SecondsDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// InitLogger initializes a zap logger with console + rolling file outputs based on configuration.
func InitLogger(cfg config.AppConfig) error {
	level := parseLevel(cfg.LogLevel)

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level),
	}
	if cfg.LogPath != "" {
		cores = append(cores, rollingCore(cfg.LogPath, level, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress))
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.LogLevel == "debug" {
		opts = append(opts, zap.Development())
	}
	Logger = zap.New(zapcore.NewTee(cores...), opts...)
	Sugar = Logger.Sugar()
	return nil
}

// NewRollingFileLogger returns a logger that writes JSON lines to a lumberjack managed file only.
func NewRollingFileLogger(path, level string, maxSizeMB, maxBackups, maxAgeDays int, compress bool) (*zap.Logger, error) {
	if path == "" {
		return nil, os.ErrInvalid
	}
	return zap.New(rollingCore(path, parseLevel(level), maxSizeMB, maxBackups, maxAgeDays, compress)), nil
}

func rollingCore(path string, level zapcore.Level, maxSizeMB, maxBackups, maxAgeDays int, compress bool) zapcore.Core {
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    nz(maxSizeMB, 100), // megabytes
		MaxBackups: nz(maxBackups, 3),
		MaxAge:     nz(maxAgeDays, 7), // days
		Compress:   compress,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(lj), level)
}

// Ginzap logs one line per request.
func Ginzap(logger *zap.Logger, timeFormat string, utc bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		c.Next()

		end := time.Now()
		if utc {
			end = end.UTC()
		}
		fields := []zapcore.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.Duration("latency", end.Sub(start)),
			zap.String("time", end.Format(timeFormat)),
		}
		if len(c.Errors) > 0 {
			for _, e := range c.Errors.Errors() {
				logger.Error(e, fields...)
			}
			return
		}
		logger.Info(path, fields...)
	}
}

// RecoveryWithZap turns panics into 500 responses and logs them.
func RecoveryWithZap(logger *zap.Logger, stack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				httpRequest, _ := httputil.DumpRequest(c.Request, false)
				if brokenPipe(err) {
					logger.Error(c.Request.URL.Path, zap.Any("error", err), zap.String("request", string(httpRequest)))
					_ = c.Error(err.(error))
					c.Abort()
					return
				}
				fields := []zapcore.Field{
					zap.Time("time", time.Now()),
					zap.Any("error", err),
					zap.String("request", string(httpRequest)),
				}
				if stack {
					fields = append(fields, zap.String("stack", string(debug.Stack())))
				}
				logger.Error("[Recovery from panic]", fields...)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// brokenPipe reports a client that went away mid-response; nothing can be written back.
func brokenPipe(err any) bool {
	ne, ok := err.(*net.OpError)
	if !ok {
		return false
	}
	se, ok := ne.Err.(*os.SyscallError)
	if !ok {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func nz(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
