package service

import (
	"context"
	"time"

	"eventsite-api/internal/config"
	"eventsite-api/internal/model"
	"eventsite-api/internal/repository"
	"eventsite-api/pkg/hash"
	"eventsite-api/pkg/log"
	"eventsite-api/pkg/token"
)

// AdminSubject 是管理员 token 的 subject。
const AdminSubject = "admin"

// SubmissionPage 是提交记录分页结果。
type SubmissionPage struct {
	Data  []model.Submission `json:"data"`
	Total int64              `json:"total"`
}

// AdminService 接口定义了管理员相关的业务操作。
type AdminService interface {
	Login(password string) (string, time.Time, error)
	ListSubmissions(ctx context.Context, offset, limit int) (*SubmissionPage, error)
}

type adminService struct {
	cfg        config.AdminConfig
	jwtManager *token.JWTManager
	repo       repository.SubmissionRepository
}

// NewAdminService 创建一个新的 AdminService 实例。jwtManager 或 repo 为 nil 时对应操作返回 ErrNotConfigured。
func NewAdminService(cfg config.AdminConfig, jwtManager *token.JWTManager, repo repository.SubmissionRepository) AdminService {
	return &adminService{cfg: cfg, jwtManager: jwtManager, repo: repo}
}

// Login 校验管理员密码并签发 token。
func (s *adminService) Login(password string) (string, time.Time, error) {
	if s.jwtManager == nil || !s.cfg.Enabled() {
		return "", time.Time{}, ErrNotConfigured
	}
	if !hash.CheckPasswordHash(password, s.cfg.PasswordHash) {
		log.Warnf("管理员登录失败：密码错误")
		return "", time.Time{}, ErrInvalidCredentials
	}
	return s.jwtManager.GenerateToken(AdminSubject)
}

// ListSubmissions 分页列出联系表单提交记录。
func (s *adminService) ListSubmissions(ctx context.Context, offset, limit int) (*SubmissionPage, error) {
	if s.repo == nil {
		return nil, ErrNotConfigured
	}
	subs, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	return &SubmissionPage{Data: subs, Total: total}, nil
}
