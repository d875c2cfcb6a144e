package utils

import (
	"net/http"
	"strings"
)

// sensitiveKeywords 敏感头部名称关键字 (用于日志脱敏)
var sensitiveKeywords = []string{
	"authorization",
	"token",
	"key",
	"secret",
	"password",
	"credential",
	"api-key",
}

// HeaderRedactor 头部脱敏器
// 识别敏感HTTP头部并在日志输出前脱敏其值
type HeaderRedactor struct{}

// NewHeaderRedactor 创建头部脱敏器
func NewHeaderRedactor() *HeaderRedactor {
	return &HeaderRedactor{}
}

// IsSensitiveHeader 检查头部名称是否包含敏感关键字
func (hr *HeaderRedactor) IsSensitiveHeader(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactHeaderValue 脱敏单个头部值
func (hr *HeaderRedactor) RedactHeaderValue(name, value string) string {
	if !hr.IsSensitiveHeader(name) {
		return value
	}

	// Bearer Token 仅保留前缀
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}

	// 较长的密钥显示前4位+后4位
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}

	// 短密钥完全隐藏
	return "***"
}

// Redact 脱敏整个http.Header,返回用于日志的安全map
func (hr *HeaderRedactor) Redact(headers http.Header) map[string]string {
	result := make(map[string]string)
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		// 只取第一个值 (大多数头部只有一个值)
		result[name] = hr.RedactHeaderValue(name, values[0])
	}
	return result
}

// RedactToString 脱敏并格式化为 "Header1: value1, Header2: value2"
func (hr *HeaderRedactor) RedactToString(headers http.Header) string {
	redacted := hr.Redact(headers)
	var parts []string
	for name, value := range redacted {
		parts = append(parts, name+": "+value)
	}
	return strings.Join(parts, ", ")
}
