package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	structuredTimeKeyConstant            = "ts"
	structuredLevelKeyConstant           = "level"
	structuredMessageKeyConstant         = "msg"
	structuredCallerKeyConstant          = "caller"
	structuredStacktraceKeyConstant      = "stacktrace"
	consoleLevelKeyConstant              = "L"
	consoleMessageKeyConstant            = "M"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = LogLevel("debug")
	LogLevelInfo  LogLevel = LogLevel("info")
	LogLevelWarn  LogLevel = LogLevel("warn")
	LogLevelError LogLevel = LogLevel("error")
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Supported log formats. Structured emits JSON lines; console emits one readable sentence per line.
const (
	LogFormatStructured LogFormat = LogFormat("structured")
	LogFormatConsole    LogFormat = LogFormat("console")
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// LoggerFactoryOption customizes a LoggerFactory.
type LoggerFactoryOption func(factory *LoggerFactory)

// WithLogOutput directs every logger built by the factory to writer instead of standard error.
func WithLogOutput(writer io.Writer) LoggerFactoryOption {
	return func(factory *LoggerFactory) {
		if writer != nil {
			factory.output = zapcore.AddSync(writer)
		}
	}
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct {
	output zapcore.WriteSyncer
}

// NewLoggerFactory constructs a logger factory writing to standard error.
func NewLoggerFactory(options ...LoggerFactoryOption) *LoggerFactory {
	factory := &LoggerFactory{output: zapcore.Lock(os.Stderr)}
	for _, option := range options {
		if option != nil {
			option(factory)
		}
	}
	return factory
}

// CreateLogger produces a zap.Logger with the requested level and format. Level and format names are
// case-insensitive. Console loggers drop timestamps, callers, and stack traces so that each line reads
// as a sentence.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	normalizedLevel := LogLevel(strings.ToLower(strings.TrimSpace(string(requestedLogLevel))))
	zapLogLevel, levelExists := logLevelMapping[normalizedLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	switch LogFormat(strings.ToLower(strings.TrimSpace(string(requestedLogFormat)))) {
	case LogFormatStructured:
		core := zapcore.NewCore(zapcore.NewJSONEncoder(structuredEncoderConfig()), factory.output, zapLogLevel)
		return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
	case LogFormatConsole:
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), factory.output, zapLogLevel)
		return zap.New(core), nil
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}
}

func structuredEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        structuredTimeKeyConstant,
		LevelKey:       structuredLevelKeyConstant,
		MessageKey:     structuredMessageKeyConstant,
		CallerKey:      structuredCallerKeyConstant,
		StacktraceKey:  structuredStacktraceKeyConstant,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		LevelKey:         consoleLevelKeyConstant,
		MessageKey:       consoleMessageKeyConstant,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: "\t",
	}
}
