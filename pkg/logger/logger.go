package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/middleware/requestid"
)

// New builds the service logger from LOG_LEVEL and LOG_FORMAT.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	applyLevel(&zapCfg, cfg.Log.Level, zapcore.InfoLevel)

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

// NewCLI builds a console logger writing to stderr so command output on stdout
// stays clean. It logs at warn and only LOG_LEVEL=debug lowers it; any other
// level is ignored.
func NewCLI(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Encoding = "console"
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	zapCfg.DisableStacktrace = true
	zapCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if cfg.Log.Level == "debug" {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zapCfg.EncoderConfig.TimeKey = ""
	return zapCfg.Build()
}

func applyLevel(zapCfg *zap.Config, level string, fallback zapcore.Level) {
	if level == "" {
		return
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		zapCfg.Level = zap.NewAtomicLevelAt(fallback)
	}
}

func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		reqID := requestid.Value(c)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		}
		if reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= 500 {
			l.Error("http_request", fields...)
			return
		}
		l.Info("http_request", fields...)
	}
}
