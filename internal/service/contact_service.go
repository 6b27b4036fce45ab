package service

import (
	"context"
	"fmt"
	"time"

	"eventsite-api/internal/config"
	"eventsite-api/internal/model"
	"eventsite-api/internal/repository"
	"eventsite-api/pkg/events"
	"eventsite-api/pkg/log"
	"eventsite-api/pkg/mailer"

	"github.com/google/uuid"
)

// LeadPublisher 发布已接收线索的事件。
type LeadPublisher interface {
	PublishLead(ctx context.Context, event events.LeadEvent) error
}

// ContactService 定义了联系表单中继的接口。
type ContactService interface {
	// Submit 处理一条已校验的提交，返回最终状态。
	// 只有主通知邮件发送失败时返回 *UpstreamError，其余降级情况都视为成功。
	Submit(ctx context.Context, sub model.ContactSubmission, meta model.RequestMeta) (model.SubmissionStatus, error)
	Limits() model.ContactLimits
}

type contactService struct {
	mailCfg   config.MailConfig
	limits    config.ContactConfig
	sender    mailer.Sender
	repo      repository.SubmissionRepository
	publisher LeadPublisher
	tasks     *TaskGroup
	now       func() time.Time
}

// NewContactService 创建一个新的 ContactService 实例。
// sender、repo、publisher 均可为 nil，对应功能会被跳过。
func NewContactService(mailCfg config.MailConfig, limits config.ContactConfig, sender mailer.Sender, repo repository.SubmissionRepository, publisher LeadPublisher, tasks *TaskGroup) ContactService {
	return &contactService{
		mailCfg:   mailCfg,
		limits:    limits,
		sender:    sender,
		repo:      repo,
		publisher: publisher,
		tasks:     tasks,
		now:       time.Now,
	}
}

func (s *contactService) Limits() model.ContactLimits {
	return model.ContactLimits{
		MessageMinLength:     s.limits.MessageMinLength,
		MessageMaxLength:     s.limits.MessageMaxLength,
		MessageHintMaxLength: s.limits.MessageHintMaxLength,
	}
}

func (s *contactService) Submit(ctx context.Context, sub model.ContactSubmission, meta model.RequestMeta) (model.SubmissionStatus, error) {
	// 客户端断开不应中断持久化和发信
	ctx = context.WithoutCancel(ctx)
	receivedAt := s.now()
	record := &model.Submission{
		ID:        uuid.NewString(),
		FirstName: sub.FirstName,
		LastName:  sub.LastName,
		Email:     sub.Email,
		Company:   sub.Company,
		Phone:     sub.Phone,
		Message:   sub.Message,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Status:    model.SubmissionReceived,
		CreatedAt: receivedAt,
	}

	// 1. 蜜罐命中：静默丢弃，不发信也不发布事件
	if sub.IsBot() {
		log.Infow("蜜罐字段被填写，丢弃提交", "submission_id", record.ID, "client_ip", meta.ClientIP)
		record.Status = model.SubmissionDiscarded
		s.persist(ctx, record)
		return model.SubmissionDiscarded, nil
	}

	// 2. 持久化（失败只记录日志）
	s.persist(ctx, record)

	// 3. 未配置 SMTP：只记录日志
	if s.sender == nil {
		log.Infow("SMTP 未配置，联系表单提交仅记录日志",
			"submission_id", record.ID,
			"name", sub.FullName(),
			"email", sub.Email,
			"company", sub.Company,
			"phone", sub.Phone,
			"message", sub.Message,
		)
		s.setStatus(ctx, record, model.SubmissionLogged)
		s.publishLead(record)
		return model.SubmissionLogged, nil
	}

	// 4. 发送主通知邮件
	data := newEnquiryData(sub, meta, receivedAt)
	text, html, err := renderEnquiry(data)
	if err != nil {
		s.setStatus(ctx, record, model.SubmissionFailed)
		return model.SubmissionFailed, fmt.Errorf("failed to render enquiry email: %w", err)
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.mailCfg.Timeout)
	defer cancel()
	err = s.sender.Send(sendCtx, &mailer.Message{
		From:     s.mailCfg.Sender(),
		FromName: s.mailCfg.FromName,
		To:       s.mailCfg.EnquiriesAddress,
		ReplyTo:  sub.Email,
		Subject:  headerSafe("New enquiry from " + sub.FullName()),
		Text:     text,
		HTML:     html,
	})
	if err != nil {
		log.Errorw("联系表单通知邮件发送失败", "submission_id", record.ID, "error", err)
		s.setStatus(ctx, record, model.SubmissionFailed)
		return model.SubmissionFailed, newUpstreamError("mail", err)
	}

	// 5. 成功后启动后台任务，不与本次请求合并
	s.setStatus(ctx, record, model.SubmissionDelivered)
	log.Infow("联系表单通知邮件已发送", "submission_id", record.ID)
	if s.mailCfg.Autoreply {
		s.sendAutoreply(sub, data)
	}
	s.publishLead(record)
	return model.SubmissionDelivered, nil
}

func (s *contactService) sendAutoreply(sub model.ContactSubmission, data enquiryData) {
	if s.tasks == nil {
		return
	}
	s.tasks.Go("autoreply", func(ctx context.Context) error {
		text, html, err := renderAutoreply(data)
		if err != nil {
			return err
		}
		return s.sender.Send(ctx, &mailer.Message{
			From:     s.mailCfg.Sender(),
			FromName: s.mailCfg.FromName,
			To:       sub.Email,
			Subject:  "Thanks for getting in touch",
			Text:     text,
			HTML:     html,
		})
	})
}

func (s *contactService) publishLead(record *model.Submission) {
	if s.publisher == nil || s.tasks == nil {
		return
	}
	event := events.LeadEvent{
		SubmissionID: record.ID,
		Email:        record.Email,
		Name:         headerSafe(record.FirstName + " " + record.LastName),
		Company:      record.Company,
		Status:       string(record.Status),
		ReceivedAt:   record.CreatedAt,
	}
	s.tasks.Go("lead-event", func(ctx context.Context) error {
		return s.publisher.PublishLead(ctx, event)
	})
}

func (s *contactService) persist(ctx context.Context, record *model.Submission) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Create(ctx, record); err != nil {
		log.Errorw("保存联系表单提交失败", "submission_id", record.ID, "error", err)
	}
}

func (s *contactService) setStatus(ctx context.Context, record *model.Submission, status model.SubmissionStatus) {
	record.Status = status
	if s.repo == nil {
		return
	}
	if err := s.repo.UpdateStatus(ctx, record.ID, status); err != nil {
		log.Errorw("更新联系表单提交状态失败", "submission_id", record.ID, "status", status, "error", err)
	}
}
