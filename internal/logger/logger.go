package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
)

// LogLevel represents available log levels
type LogLevel string

const (
	DEBUG LogLevel = "debug"
	INFO  LogLevel = "info"
	WARN  LogLevel = "warn"
	ERROR LogLevel = "error"
	PANIC LogLevel = "panic"
	FATAL LogLevel = "fatal"
)

// LogFormat represents output formats
type LogFormat string

const (
	JSON    LogFormat = "json"
	CONSOLE LogFormat = "console"
)

// Config holds logger configuration
type Config struct {
	Level      LogLevel  `json:"level"`
	Format     LogFormat `json:"format"`
	OutputPath string    `json:"output_path"`
	Caller     bool      `json:"caller"`
	Stacktrace bool      `json:"stacktrace"`
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:      INFO,
		Format:     CONSOLE,
		OutputPath: "stdout",
		Caller:     true,
		Stacktrace: true,
	}
}

// InitLogger initializes the global logger with configuration
func InitLogger(config Config) error {
	var level zapcore.Level
	switch config.Level {
	case DEBUG:
		level = zapcore.DebugLevel
	case INFO:
		level = zapcore.InfoLevel
	case WARN:
		level = zapcore.WarnLevel
	case ERROR:
		level = zapcore.ErrorLevel
	case PANIC:
		level = zapcore.PanicLevel
	case FATAL:
		level = zapcore.FatalLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	var encoder zapcore.Encoder

	if config.Format == JSON {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var writeSyncer zapcore.WriteSyncer
	if config.OutputPath == "stdout" || config.OutputPath == "" {
		writeSyncer = zapcore.AddSync(os.Stdout)
	} else {
		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		writeSyncer = zapcore.AddSync(file)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)

	var options []zap.Option
	if config.Caller {
		options = append(options, zap.AddCaller())
		options = append(options, zap.AddCallerSkip(1))
	}
	if config.Stacktrace {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	Logger = zap.New(core, options...)
	Sugar = Logger.Sugar()

	return nil
}

// InitFromEnv initializes logger from environment variables
func InitFromEnv() error {
	config := DefaultConfig()

	if level := os.Getenv("SCHED_LOG_LEVEL"); level != "" {
		config.Level = LogLevel(strings.ToLower(level))
	}
	if format := os.Getenv("SCHED_LOG_FORMAT"); format != "" {
		config.Format = LogFormat(strings.ToLower(format))
	}
	if output := os.Getenv("SCHED_LOG_OUTPUT"); output != "" {
		config.OutputPath = output
	}
	if caller := os.Getenv("SCHED_LOG_CALLER"); caller == "false" {
		config.Caller = false
	}
	if stacktrace := os.Getenv("SCHED_LOG_STACKTRACE"); stacktrace == "false" {
		config.Stacktrace = false
	}

	return InitLogger(config)
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		Logger.Sync()
	}
}

// WithComponent adds component context to the logger
func WithComponent(component string) *zap.Logger {
	return Logger.With(zap.String("component", component))
}

// WithRun adds scheduling-run context to the logger
func WithRun(runID string) *zap.Logger {
	return Logger.With(zap.String("run_id", runID))
}

// WithInstance adds task-instance context to the logger
func WithInstance(displayName string) *zap.Logger {
	return Logger.With(zap.String("instance", displayName))
}

// WithTeam adds team context to the logger
func WithTeam(team string) *zap.Logger {
	return Logger.With(zap.String("team", team))
}

// WithProduct adds product context to the logger
func WithProduct(productID string) *zap.Logger {
	return Logger.With(zap.String("product", productID))
}

// LogPerformance logs performance metrics for a phase of a run
func LogPerformance(operation string, durationMS int64, success bool) {
	Logger.Info("performance metric",
		zap.String("operation", operation),
		zap.Int64("duration_ms", durationMS),
		zap.Bool("success", success),
	)
}

// LogRunMetrics logs the outcome of a completed scheduling run
func LogRunMetrics(runID string, taskCount int, makespanDays int, unscheduled int) {
	Logger.Info("scheduling run completed",
		zap.String("run_id", runID),
		zap.Int("task_count", taskCount),
		zap.Int("makespan_working_days", makespanDays),
		zap.Int("unscheduled_count", unscheduled),
	)
}

// LogOptimizerIteration logs one iteration of an optimizer policy
func LogOptimizerIteration(policy string, iteration int, totalWorkforce int, maxDeviation float64) {
	Logger.Info("optimizer iteration",
		zap.String("policy", policy),
		zap.Int("iteration", iteration),
		zap.Int("total_workforce", totalWorkforce),
		zap.Float64("max_deviation", maxDeviation),
	)
}

// LogError logs structured error information with free-form context
func LogError(operation string, err error, context map[string]interface{}) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Error(err),
	}

	for key, value := range context {
		fields = append(fields, zap.Any(key, value))
	}

	Logger.Error("operation failed", fields...)
}

// LogCriticalError logs errors that abort a load or a run
func LogCriticalError(operation string, err error, context map[string]interface{}) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Error(err),
		zap.String("severity", "critical"),
	}

	for key, value := range context {
		fields = append(fields, zap.Any(key, value))
	}

	Logger.Error("critical error", fields...)
}
