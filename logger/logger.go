// Package logger 提供全局日志功能
package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// CoreLogFileName 核心日志文件名
	CoreLogFileName = "core.log"

	encodeTimeFormat = "2006-01-02 15:04:05.000"

	defaultRotateMaxSize    = 200
	defaultRotateMaxAge     = 7
	defaultRotateMaxBackups = 20
)

// Options 日志配置
type Options struct {
	Level      string
	Console    bool
	Dir        string
	MaxSize    int
	MaxAge     int
	MaxBackups int
	Compress   bool
}

var (
	coreLogger *zap.SugaredLogger
	coreLevel  = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() {
	config := zap.NewDevelopmentConfig()
	config.Level = coreLevel
	log, err := config.Build(zap.AddCaller(), zap.AddStacktrace(zap.WarnLevel), zap.AddCallerSkip(1))
	if err == nil {
		SetCoreLogger(log.Sugar())
	}
}

// Init 根据配置初始化日志
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	coreLevel.SetLevel(level)

	if opts.Console || opts.Dir == "" {
		return nil
	}

	log, err := CreateLogger(filepath.Join(opts.Dir, CoreLogFileName), opts)
	if err != nil {
		return err
	}
	SetCoreLogger(log.Sugar())
	return nil
}

// CreateLogger 创建按大小滚动的JSON文件日志
func CreateLogger(filePath string, opts Options) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, err
	}

	rotateConfig := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    orDefault(opts.MaxSize, defaultRotateMaxSize),
		MaxAge:     orDefault(opts.MaxAge, defaultRotateMaxAge),
		MaxBackups: orDefault(opts.MaxBackups, defaultRotateMaxBackups),
		LocalTime:  true,
		Compress:   opts.Compress,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(encodeTimeFormat)

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotateConfig),
		coreLevel,
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.WarnLevel), zap.AddCallerSkip(1)), nil
}

// ParseLevel 解析日志级别, 空字符串为info
func ParseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(level)
}

// SetCoreLogger 替换核心日志
func SetCoreLogger(log *zap.SugaredLogger) {
	coreLogger = log
}

// Sync 刷新缓冲
func Sync() {
	_ = coreLogger.Sync()
}

// With 返回带有固定字段的日志
func With(args ...interface{}) *zap.SugaredLogger {
	return coreLogger.With(args...)
}

func Debugf(template string, args ...interface{}) {
	coreLogger.Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	coreLogger.Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	coreLogger.Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	coreLogger.Errorf(template, args...)
}

func Info(args ...interface{}) {
	coreLogger.Info(args...)
}

func Warn(args ...interface{}) {
	coreLogger.Warn(args...)
}

func Error(args ...interface{}) {
	coreLogger.Error(args...)
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
