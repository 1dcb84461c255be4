package log

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/onsi/ginkgo/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	baseLogger     logr.Logger
	baseLoggerOnce sync.Once
)

type Log struct {
	Logger logr.Logger
	name   string
	values []interface{}
}

//NewLogger does not build the zap backend, that happens on first use so the environment can be
//set up after package initialization
func NewLogger(name string, values ...interface{}) Log {
	l := Log{}
	l.name = name
	l.values = values
	return l
}

func (l Log) sink() logr.Logger {
	if l.Logger.GetSink() != nil {
		return l.Logger
	}
	baseLoggerOnce.Do(func() {
		baseLogger = zapr.NewLogger(newZapLogger())
	})
	return baseLogger
}

//WithValues returns a copy of the logger that adds keysAndValues to every message
func (l Log) WithValues(keysAndValues ...interface{}) Log {
	values := make([]interface{}, 0, len(l.values)+len(keysAndValues))
	values = append(values, l.values...)
	values = append(values, keysAndValues...)
	return Log{Logger: l.Logger, name: l.name, values: values}
}

func newZapLogger() *zap.Logger {
	var encoder zapcore.Encoder
	devMode := os.Getenv("DEV_MODE")
	if strings.EqualFold(devMode, "true") {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.StacktraceKey = "trace"
		encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		encoder = &stackTraceEncoder{zapcore.NewConsoleEncoder(encoderConfig)}
	} else {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.StacktraceKey = "trace"
		encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var level zapcore.Level
	logLvl := os.Getenv("LOG_LEVEL")
	if strings.EqualFold(logLvl, "TRACE") {
		level = zapcore.Level(-2)
	} else if strings.EqualFold(logLvl, "DEBUG") {
		level = zap.DebugLevel
	} else if strings.EqualFold(logLvl, "INFO") {
		level = zap.InfoLevel
	} else {
		level = zap.WarnLevel
	}

	var dest io.Writer = os.Stderr
	//suppress log spam during test runs
	if strings.EqualFold(os.Getenv("TEST_MODE"), "true") {
		dest = ginkgo.GinkgoWriter
	}

	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		}
		dest = io.MultiWriter(dest, rotator)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(dest), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}

func addMetadata(messageKeyValues []interface{}, metaName string, metaValues []interface{}) []interface{} {
	var response []interface{}

	if metaName != "" {
		response = append(response, "log-name")
		response = append(response, metaName)
	}

	if metaValues != nil {
		response = append(response, metaValues...)
	}

	if messageKeyValues != nil {
		response = append(response, messageKeyValues...)
	}

	return response
}

func (l Log) Trace(message string, keysAndValues ...interface{}) {
	l.sink().V(2).Info(message, addMetadata(keysAndValues, l.name, l.values)...)
}

func (l Log) Debug(message string, keysAndValues ...interface{}) {
	l.sink().V(1).Info(message, addMetadata(keysAndValues, l.name, l.values)...)
}

func (l Log) Info(message string, keysAndValues ...interface{}) {
	l.sink().Info(message, addMetadata(keysAndValues, l.name, l.values)...)
}

func (l Log) Warn(message string, keysAndValues ...interface{}) {
	l.sink().V(-1).Info(message, addMetadata(keysAndValues, l.name, l.values)...)
}

func (l Log) Error(err error, message string, keysAndValues ...interface{}) {
	l.sink().Error(err, message, addMetadata(keysAndValues, l.name, l.values)...)
}
