package models

import "time"

// AssistanceRequest 求助请求
type AssistanceRequest struct {
	ID                string       `json:"id" gorm:"primaryKey;size:36"`
	Title             string       `json:"title" gorm:"size:100"`
	Description       string       `json:"description" gorm:"size:1000"`
	Type              string       `json:"type" gorm:"size:32;index:idx_request_type_status"`
	Priority          string       `json:"priority" gorm:"size:16;index:idx_request_priority_status"`
	Status            string       `json:"status" gorm:"size:16;index:idx_request_type_status;index:idx_request_priority_status"`
	Location          Location     `json:"location" gorm:"embedded"`
	Requester         string       `json:"requester" gorm:"size:36;index"`
	Responder         *string      `json:"responder,omitempty" gorm:"size:36;index"` // pending 时为空，接单后不可变
	AcceptedAt        *time.Time   `json:"acceptedAt,omitempty"`
	CompletedAt       *time.Time   `json:"completedAt,omitempty"`
	UrgentBy          *time.Time   `json:"urgentBy,omitempty"`
	EscalatedAt       *time.Time   `json:"escalatedAt,omitempty"` // 超期扩大半径匹配的时间，每个求助只升级一次
	EstimatedDuration int          `json:"estimatedDuration"`     // 分钟
	Requirements      Requirements `json:"requirements" gorm:"serializer:json"`
	Feedback          Feedback     `json:"feedback" gorm:"embedded"`
	CreatedAt         time.Time    `json:"createdAt" gorm:"index"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// TableName 返回表名
func (AssistanceRequest) TableName() string {
	return "assistance_requests"
}

// IsParticipant 是否为求助者或当前响应者
func (r *AssistanceRequest) IsParticipant(userID string) bool {
	if r.Requester == userID {
		return true
	}
	return r.Responder != nil && *r.Responder == userID
}
