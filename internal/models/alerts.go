package models

import "time"

// Alert 紧急警报
type Alert struct {
	ID          string           `json:"id" gorm:"primaryKey;size:36"`
	Title       string           `json:"title" gorm:"size:100"`
	Description string           `json:"description" gorm:"size:1000"`
	Type        string           `json:"type" gorm:"size:32;index:idx_alert_type_status"`
	Severity    string           `json:"severity" gorm:"size:16;index:idx_alert_severity_status"`
	Status      string           `json:"status" gorm:"size:16;index:idx_alert_type_status;index:idx_alert_severity_status"`
	Location    Location         `json:"location" gorm:"embedded"`
	CreatedBy   string           `json:"createdBy" gorm:"size:36;index"` // 创建者，创建后不可变
	Responders  []AlertResponder `json:"responders" gorm:"foreignKey:AlertID"`
	Images      []AlertImage     `json:"images" gorm:"serializer:json"`
	VerifiedBy  *string          `json:"verifiedBy,omitempty" gorm:"size:36"`
	ResolvedAt  *time.Time       `json:"resolvedAt,omitempty"` // 仅在 status=resolved 时设置
	Priority    int              `json:"priority"`             // 1-10
	CreatedAt   time.Time        `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// AlertResponder 警报响应者，(alert_id, user_id) 唯一
type AlertResponder struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	AlertID     string    `json:"-" gorm:"size:36;uniqueIndex:idx_alert_responder"`
	UserID      string    `json:"user" gorm:"size:36;uniqueIndex:idx_alert_responder"`
	RespondedAt time.Time `json:"respondedAt"`
	Status      string    `json:"status" gorm:"size:16"`
}

// IsTerminal 警报是否已处于终态
func (a *Alert) IsTerminal() bool {
	return a.Status == AlertResolved || a.Status == AlertFalseAlarm
}
