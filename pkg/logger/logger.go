// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			if f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); cfg.FilePath != "" && err == nil {
				output = f
			} else {
				output = os.Stdout
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		Init(DefaultConfig())
	}
	return &logger
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()

	if reqID, ok := ctx.Value("request_id").(string); ok {
		l = l.With().Str("request_id", reqID).Logger()
	}

	return &l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// WithError 添加错误信息
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// AssignerLogger 分配引擎专用日志器
type AssignerLogger struct {
	base *zerolog.Logger
}

// NewAssignerLogger 创建分配引擎日志器
func NewAssignerLogger() *AssignerLogger {
	l := Get().With().Str("component", "assigner").Logger()
	return &AssignerLogger{base: &l}
}

// StartAssign 记录单患者自动分配开始
func (l *AssignerLogger) StartAssign(patientID string, candidates int) {
	l.base.Info().
		Str("patient_id", patientID).
		Int("candidates", candidates).
		Msg("开始自动分配")
}

// SlotFound 记录找到访视时段
func (l *AssignerLogger) SlotFound(patientID, professionalID, date, visitTime string) {
	l.base.Info().
		Str("patient_id", patientID).
		Str("professional_id", professionalID).
		Str("date", date).
		Str("time", visitTime).
		Msg("找到访视时段")
}

// AssignFailed 记录分配失败
func (l *AssignerLogger) AssignFailed(patientID, reason string) {
	l.base.Warn().
		Str("patient_id", patientID).
		Str("reason", reason).
		Msg("分配失败")
}

// BulkComplete 记录批量分配完成
func (l *AssignerLogger) BulkComplete(total, success, fail int, duration time.Duration) {
	l.base.Info().
		Int("total", total).
		Int("success", success).
		Int("fail", fail).
		Dur("duration", duration).
		Msg("批量分配完成")
}
