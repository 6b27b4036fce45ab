// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNotConfigured 表示所需的外部凭证缺失，功能处于降级状态。
	ErrNotConfigured = errors.New("service not configured")
	// ErrInvalidCredentials 表示管理员密码错误。
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UpstreamError 表示外部依赖（邮件中继或 LLM 接口）调用失败，包括超时。
type UpstreamError struct {
	Service string
	Timeout bool
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s upstream timed out: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s upstream failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func newUpstreamError(service string, err error) *UpstreamError {
	timeout := errors.Is(err, context.DeadlineExceeded)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	return &UpstreamError{Service: service, Timeout: timeout, Err: err}
}
