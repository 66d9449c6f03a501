package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	appName              = "revisit-loyalty"
	defaultLogDirName    = "logs"
	defaultLogFilename   = "loyalty.log"
	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 7
	defaultLogMaxAgeDays = 30
)

// Options 日志输出配置
type Options struct {
	Dir        string
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// L 全局结构化日志实例
var L *zap.Logger

var (
	fallbackOnce sync.Once
	fallbackLog  *zap.Logger
)

// Init 初始化全局日志
func Init(mode string, options Options) *zap.Logger {
	L = New(mode, options)
	zap.ReplaceGlobals(L)
	return L
}

// New 创建日志实例：debug 输出彩色控制台，其余模式写 JSON 滚动文件，
// 并把 error 及以上级别同步到 stderr
func New(mode string, options Options) *zap.Logger {
	encoderConfig := newEncoderConfig()
	var core zapcore.Core
	if isDebugMode(mode) {
		encoderConfig.EncodeLevel = zapcore.LowercaseColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), zap.DebugLevel)
	} else {
		jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)
		writeSyncer, err := openRotatingFile(options)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger init failed, fallback to stdout: %v\n", err)
			writeSyncer = zapcore.AddSync(os.Stdout)
		}
		core = zapcore.NewTee(
			zapcore.NewCore(jsonEncoder, writeSyncer, zap.InfoLevel),
			zapcore.NewCore(jsonEncoder.Clone(), zapcore.Lock(os.Stderr), zap.ErrorLevel),
		)
	}
	return zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.Fields(zap.String("app", appName)),
	)
}

// StdLogger 返回兼容标准库 log 的 logger
func StdLogger() *log.Logger {
	return zap.NewStdLog(Z())
}

// Z 返回可用的结构化日志实例
func Z() *zap.Logger {
	if L != nil {
		return L
	}
	return fallbackLogger()
}

// S 返回可用的 SugaredLogger
func S() *zap.SugaredLogger {
	return Z().Sugar()
}

// SW 返回带上下文字段的 SugaredLogger
func SW(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return S()
	}
	return S().With(kv...)
}

// Debugw 输出 debug 级别日志
func Debugw(message string, kv ...interface{}) {
	S().Debugw(message, kv...)
}

// Infow 输出 info 级别日志
func Infow(message string, kv ...interface{}) {
	S().Infow(message, kv...)
}

// Warnw 输出 warn 级别日志
func Warnw(message string, kv ...interface{}) {
	S().Warnw(message, kv...)
}

// Errorw 输出 error 级别日志
func Errorw(message string, kv ...interface{}) {
	S().Errorw(message, kv...)
}

// Fatalw 输出 fatal 级别日志并退出进程
func Fatalw(message string, kv ...interface{}) {
	S().Fatalw(message, kv...)
}

// Tenant 返回绑定租户字段的 SugaredLogger
func Tenant(restaurantID string, kv ...interface{}) *zap.SugaredLogger {
	return SW(append([]interface{}{"restaurant_id", restaurantID}, kv...)...)
}

// Card 返回绑定租户与会员卡号的 SugaredLogger
func Card(restaurantID, cardNumber string, kv ...interface{}) *zap.SugaredLogger {
	return Tenant(restaurantID, append([]interface{}{"card_number", cardNumber}, kv...)...)
}

// Sync 刷新缓冲日志
func Sync() {
	_ = Z().Sync()
}

func fallbackLogger() *zap.Logger {
	fallbackOnce.Do(func() {
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(newEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			zap.NewAtomicLevelAt(zap.InfoLevel),
		)
		fallbackLog = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	})
	return fallbackLog
}

func newEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.MessageKey = "event"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return encoderConfig
}

func isDebugMode(mode string) bool {
	return strings.EqualFold(strings.TrimSpace(mode), "debug")
}

// withDefaults 补齐目录、文件名与滚动参数
func (o Options) withDefaults() (Options, error) {
	o.Dir = strings.TrimSpace(o.Dir)
	if o.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return o, fmt.Errorf("resolve workdir: %w", err)
		}
		o.Dir = filepath.Join(wd, defaultLogDirName)
	}
	if o.Filename = strings.TrimSpace(o.Filename); o.Filename == "" {
		o.Filename = defaultLogFilename
	}
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = defaultLogMaxSizeMB
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = defaultLogMaxBackups
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = defaultLogMaxAgeDays
	}
	return o, nil
}

// Path 日志文件完整路径
func (o Options) Path() string {
	return filepath.Join(o.Dir, o.Filename)
}

// openRotatingFile 创建目录并确认文件可写，再交给 lumberjack 滚动
func openRotatingFile(options Options) (zapcore.WriteSyncer, error) {
	opts, err := options.withDefaults()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	probe, err := os.OpenFile(opts.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	_ = probe.Close()
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.Path(),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}), nil
}
