// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"

	"eventsite-api/internal/model"

	"gorm.io/gorm"
)

// SubmissionRepository 接口定义了联系表单提交记录的持久化操作。
type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	UpdateStatus(ctx context.Context, id string, status model.SubmissionStatus) error
	List(ctx context.Context, offset, limit int) ([]model.Submission, int64, error)
}

// submissionRepository 是 SubmissionRepository 接口的 GORM 实现。
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建一个新的 SubmissionRepository 实例。
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// AutoMigrate 创建或更新 contact_submissions 表。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Submission{})
}

// Create 在数据库中创建一条提交记录。
func (r *submissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// UpdateStatus 更新提交记录的处理状态。
func (r *submissionRepository) UpdateStatus(ctx context.Context, id string, status model.SubmissionStatus) error {
	return r.db.WithContext(ctx).Model(&model.Submission{}).Where("id = ?", id).Update("status", status).Error
}

// List 按创建时间倒序分页返回提交记录和总数。
func (r *submissionRepository) List(ctx context.Context, offset, limit int) ([]model.Submission, int64, error) {
	var subs []model.Submission
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Submission{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, total, err
}
