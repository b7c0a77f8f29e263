// Package handler 提供API处理器
package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/kotihoito/kotihoito/pkg/errors"
)

// APIResponse 通用响应包装
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError 错误响应体
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON 写入成功响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data})
}

// writeError 写入错误响应，状态码由错误码映射
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.GetHTTPStatus(err))
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    string(apperrors.GetCode(err)),
			Message: err.Error(),
		},
	})
}

// writeBadRequest 写入参数错误响应
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, apperrors.New(apperrors.CodeInvalidInput, message))
}

// requirePost 校验请求方法
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// requireGet 校验请求方法
func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
