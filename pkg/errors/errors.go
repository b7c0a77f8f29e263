// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown       Code = "UNKNOWN"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeTimeout       Code = "TIMEOUT"

	// 分配/调度相关
	CodeNoMatches          Code = "NO_MATCHES"          // 无符合条件的专业人员
	CodeNoSlot             Code = "NO_SLOT"             // 搜索窗口内无可用时段
	CodeAssignmentConflict Code = "CONFLICT"            // 提交时约束冲突（患者已有有效分配等）
	CodeAreaNotCovered     Code = "AREA_NOT_COVERED"    // 服务区无人覆盖
	CodeInvalidTimeRange   Code = "INVALID_TIME_RANGE"  // 时间范围无效
	CodeScheduleViolation  Code = "SCHEDULE_VIOLATION"  // 排期违反约束

	// 数据相关
	CodeDataError      Code = "DATA_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"

	// 地理编码相关
	CodeGeocodeFailed Code = "GEOCODE_FAILED"
)

// NoSlotReason NO_SLOT 的细分原因
type NoSlotReason string

const (
	NoSlotNoWorkingHours NoSlotReason = "no_working_hours" // 窗口内无任何工作时段
	NoSlotAtCapacity     NoSlotReason = "at_capacity"      // 每日容量已满
	NoSlotNoGap          NoSlotReason = "no_gap"           // 无足够长的空档
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus 错误码转HTTP状态码
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeInvalidTimeRange:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeAssignmentConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeNoMatches, CodeNoSlot, CodeAreaNotCovered:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定错误码
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// 预定义错误
var (
	ErrNotFound     = New(CodeNotFound, "资源不存在")
	ErrInvalidInput = New(CodeInvalidInput, "输入参数无效")
	ErrInternal     = New(CodeInternal, "内部错误")
)

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// NotFound 创建资源不存在错误
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s '%s' 不存在", resource, id))
}

// NoMatches 创建无候选人错误
func NoMatches(patientID string) *AppError {
	return New(CodeNoMatches, fmt.Sprintf("患者 %s 没有符合条件的专业人员", patientID))
}

// NoSlot 创建无可用时段错误
func NoSlot(professionalID string, horizonDays int, reason NoSlotReason) *AppError {
	return New(CodeNoSlot,
		fmt.Sprintf("专业人员 %s 在未来 %d 天内无可用时段", professionalID, horizonDays)).
		WithField("reason", string(reason))
}

// AssignmentConflict 创建分配冲突错误
func AssignmentConflict(patientID, details string) *AppError {
	return New(CodeAssignmentConflict, fmt.Sprintf("患者 %s 分配冲突: %s", patientID, details))
}

// DataError 创建数据访问错误
func DataError(op string, cause error) *AppError {
	return Wrap(cause, CodeDataError, fmt.Sprintf("数据访问失败: %s", op))
}
