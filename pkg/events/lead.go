// Package events defines the messages that are published to Kafka.
package events

import "time"

// LeadEvent represents an accepted contact submission.
type LeadEvent struct {
	SubmissionID string    `json:"submission_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Company      string    `json:"company,omitempty"`
	Status       string    `json:"status"`
	ReceivedAt   time.Time `json:"received_at"`
}

// Key 返回分区键：同一邮箱的线索落到同一个分区。
func (e LeadEvent) Key() []byte {
	return []byte(e.Email)
}
