package model

import "time"

// SubmissionStatus 表示一条联系表单提交的处理状态。
type SubmissionStatus string

const (
	SubmissionReceived  SubmissionStatus = "received"
	SubmissionDelivered SubmissionStatus = "delivered"
	SubmissionLogged    SubmissionStatus = "logged" // 未配置 SMTP，只记录
	SubmissionFailed    SubmissionStatus = "failed"
	SubmissionDiscarded SubmissionStatus = "discarded" // 蜜罐命中
)

// Submission 定义了 contact_submissions 表的 ORM 模型。
type Submission struct {
	ID        string           `gorm:"type:char(36);primaryKey" json:"id"`
	FirstName string           `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName  string           `gorm:"type:varchar(100);not null" json:"lastName"`
	Email     string           `gorm:"type:varchar(255);not null;index" json:"email"`
	Company   string           `gorm:"type:varchar(200)" json:"company,omitempty"`
	Phone     string           `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	ClientIP  string           `gorm:"type:varchar(64)" json:"clientIp"`
	UserAgent string           `gorm:"type:varchar(512)" json:"userAgent"`
	Status    SubmissionStatus `gorm:"type:varchar(16);not null;default:received;index" json:"status"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Submission) TableName() string {
	return "contact_submissions"
}
