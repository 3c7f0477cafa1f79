package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide structured logger. It writes to stderr until
// InitLogger configures it.
var Log = logrus.New()

// LoggerOptions configures InitLogger.
type LoggerOptions struct {
	Level   string
	File    string
	Release bool
}

// InitLogger initializes the structured logger
func InitLogger(opts LoggerOptions) {
	Log.SetLevel(parseLevel(opts.Level))

	// JSON for production, text for development
	if opts.Release {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	if opts.File == "" {
		Log.SetOutput(os.Stdout)
		return
	}

	logFile := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	if opts.Release {
		Log.SetOutput(logFile)
	} else {
		Log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}

	Log.Info("Logger initialized successfully")
}

// parseLevel falls back to info for unknown names.
func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func LogInfo(message string, fields map[string]interface{}) {
	Log.WithFields(logrus.Fields(fields)).Info(message)
}

func LogError(message string, fields map[string]interface{}) {
	Log.WithFields(logrus.Fields(fields)).Error(message)
}

func LogWarn(message string, fields map[string]interface{}) {
	Log.WithFields(logrus.Fields(fields)).Warn(message)
}

func LogDebug(message string, fields map[string]interface{}) {
	Log.WithFields(logrus.Fields(fields)).Debug(message)
}
