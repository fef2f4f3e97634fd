package logging

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agentscan/registry-indexer/internal/config"

	"github.com/disgoorg/dislog"
	"github.com/disgoorg/snowflake/v2"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger = zap.SugaredLogger

var (
	globalLogger  *zap.SugaredLogger
	discordLogger *logrus.Logger
	discordHook   *dislog.DisLog
)

func Setup(cfg *config.Config) error {
	baseLogDir := cfg.Logging.LogDirectory
	if baseLogDir == "" {
		baseLogDir = "assets/logs"
	}

	if err := os.MkdirAll(baseLogDir, 0755); err != nil {
		return fmt.Errorf("error creating log directory: %w", err)
	}

	logFileName := cfg.Logging.LogFileName
	if logFileName == "" {
		logFileName = "indexer.log"
	}

	logFilePath := filepath.Join(baseLogDir, logFileName)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)

	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Logging.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
			return fmt.Errorf("error parsing log level: %w", err)
		}
	}

	// JSON to both rotated file and console
	core := zapcore.NewTee(
		zapcore.NewCore(
			jsonEncoder,
			getRotatedFileWriter(
				logFilePath,
				cfg.Logging.MaxLogFileSize,
				cfg.Logging.MaxBackups,
				cfg.Logging.MaxAge,
			),
			level,
		),
		zapcore.NewCore(jsonEncoder, zapcore.AddSync(os.Stdout), level),
	)

	logger := zap.New(core)

	globalLogger = logger.Sugar()
	return nil
}

func getRotatedFileWriter(
	filename string,
	maxSize, maxBackups, maxAge int,
) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
		LocalTime:  true,
	})
}

func GetLogger() *zap.SugaredLogger {
	if globalLogger == nil {
		globalLogger = zap.NewNop().Sugar()
	}
	return globalLogger
}

// GetDiscordLogger returns a logrus logger that mirrors warnings and errors
// to the configured Discord webhook, for operators who watch a channel
// instead of log files.
func GetDiscordLogger(cfg *config.Config) (*logrus.Logger, error) {
	if discordLogger != nil {
		return discordLogger, nil
	}

	discordLogger = logrus.New()

	discordLogFileName := "discord_" + cfg.Logging.LogFileName
	baseLogDir := cfg.Logging.LogDirectory
	discordLogFilePath := filepath.Join(baseLogDir, discordLogFileName)

	if err := os.MkdirAll(baseLogDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}

	logFile, err := os.OpenFile(
		discordLogFilePath,
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0644,
	)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", discordLogFileName, err)
	}

	mw := io.MultiWriter(os.Stdout, logFile)
	discordLogger.SetOutput(mw)

	dislog.LogWait = 1 * time.Second
	dislog.TimeFormatter = "2006-01-02 15:04:05 Z07"

	snowflakeId, token, err := newWithURL(cfg.Logging.LogDiscordWebookURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing webhook url: %w", err)
	}

	hook, err := dislog.New(
		dislog.WithLogLevels(dislog.WarnLevelAndAbove...),
		dislog.WithWebhookIDToken(snowflakeId, token),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating discord hook: %w", err)
	}

	discordHook = hook
	discordLogger.AddHook(hook)

	return discordLogger, nil
}

func CloseDiscordLogger() {
	if discordHook != nil {
		discordHook.Close(context.Background())
	}
}

func newWithURL(webhookURL string) (snowflake.ID, string, error) {
	if webhookURL == "" {
		return snowflake.New(time.Now()), "", fmt.Errorf("webhook URL is empty")
	}

	u, err := url.Parse(webhookURL)
	if err != nil {
		return snowflake.New(
				time.Now(),
			), "", fmt.Errorf(
				"invalid webhook URL: %w",
				err,
			)
	}

	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(parts) != 4 {
		return snowflake.New(
				time.Now(),
			), "", fmt.Errorf(
				"invalid webhook URL format: %s",
				u.String(),
			)
	}

	token := parts[3]
	id, err := snowflake.Parse(parts[2])
	if err != nil {
		return snowflake.New(
				time.Now(),
			), "", fmt.Errorf(
				"invalid webhook ID: %w",
				err,
			)
	}

	return id, token, nil
}
