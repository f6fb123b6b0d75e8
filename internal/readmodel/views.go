package readmodel

import (
	"time"

	"AidLink/internal/models"
)

// ResponderView 带用户摘要的响应者
type ResponderView struct {
	User        *models.UserSummary `json:"user"`
	RespondedAt time.Time           `json:"respondedAt"`
	Status      string              `json:"status"`
}

// AlertView 对外输出的警报，外键替换为用户摘要
type AlertView struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        string              `json:"type"`
	Severity    string              `json:"severity"`
	Status      string              `json:"status"`
	Location    models.Location     `json:"location"`
	CreatedBy   *models.UserSummary `json:"createdBy"`
	Responders  []ResponderView     `json:"responders"`
	Images      []models.AlertImage `json:"images"`
	VerifiedBy  *models.UserSummary `json:"verifiedBy,omitempty"`
	ResolvedAt  *time.Time          `json:"resolvedAt,omitempty"`
	Priority    int                 `json:"priority"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// RequestView 对外输出的求助
type RequestView struct {
	ID                string              `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Type              string              `json:"type"`
	Priority          string              `json:"priority"`
	Status            string              `json:"status"`
	Location          models.Location     `json:"location"`
	Requester         *models.UserSummary `json:"requester"`
	Responder         *models.UserSummary `json:"responder,omitempty"`
	AcceptedAt        *time.Time          `json:"acceptedAt,omitempty"`
	CompletedAt       *time.Time          `json:"completedAt,omitempty"`
	UrgentBy          *time.Time          `json:"urgentBy,omitempty"`
	EscalatedAt       *time.Time          `json:"escalatedAt,omitempty"`
	EstimatedDuration int                 `json:"estimatedDuration"`
	Requirements      models.Requirements `json:"requirements"`
	Feedback          *models.Feedback    `json:"feedback,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}
