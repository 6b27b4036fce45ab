// Package model 定义了请求体、领域对象以及与数据库表对应的 Go 结构体。
package model

import "strings"

// ContactSubmission 是联系表单的请求体。
// Website 是蜜罐字段，页面上对用户不可见，正常提交应为空。
type ContactSubmission struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,max=255,basic_email"`
	Message   string `json:"message" validate:"required,contact_message"`
	Company   string `json:"company" validate:"max=200"`
	Phone     string `json:"phone" validate:"max=20"`
	Website   string `json:"website"`
}

// Normalize 返回去掉首尾空白的副本。对已经规范化的值再次调用不会产生变化。
func (s ContactSubmission) Normalize() ContactSubmission {
	return ContactSubmission{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Email:     strings.TrimSpace(s.Email),
		Message:   strings.TrimSpace(s.Message),
		Company:   strings.TrimSpace(s.Company),
		Phone:     strings.TrimSpace(s.Phone),
		Website:   strings.TrimSpace(s.Website),
	}
}

// IsBot 报告蜜罐字段是否被填写。
func (s ContactSubmission) IsBot() bool {
	return s.Website != ""
}

// FullName 返回 "名 姓"。
func (s ContactSubmission) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// ContactLimits 是 GET /contact/limits 的响应体。
type ContactLimits struct {
	MessageMinLength     int `json:"messageMinLength"`
	MessageMaxLength     int `json:"messageMaxLength"`
	MessageHintMaxLength int `json:"messageHintMaxLength"`
}

// RequestMeta 记录请求来源，仅用于持久化和日志。
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}
