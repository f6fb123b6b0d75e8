// Package notify 定义实时通知总线及事件载荷
package notify

import (
	"time"

	"AidLink/internal/models"
)

// 事件名
const (
	EventAlertCreated         = "alert-created"
	EventRequestCreated       = "request-created"
	EventRequestAccepted      = "request-accepted"
	EventAlertStatusChanged   = "alert-status-changed"
	EventRequestStatusChanged = "request-status-changed"
	EventMatchesFound         = "matches-found"
)

// Bus 通知总线，投递至多一次，不排队不重放
type Bus interface {
	// Broadcast 投递给所有在线会话
	Broadcast(event string, payload interface{})
	// Notify 只投递给 userID 房间内的会话
	Notify(userID, event string, payload interface{})
}

// AlertCreated alert-created 载荷
type AlertCreated struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Type      string          `json:"type"`
	Severity  string          `json:"severity"`
	Location  models.Location `json:"location"`
	CreatedBy string          `json:"createdBy"`
}

// NewAlertCreated 从警报生成载荷
func NewAlertCreated(a *models.Alert) AlertCreated {
	return AlertCreated{
		ID:        a.ID,
		Title:     a.Title,
		Type:      a.Type,
		Severity:  a.Severity,
		Location:  a.Location,
		CreatedBy: a.CreatedBy,
	}
}

// RequestCreated request-created 载荷
type RequestCreated struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Type      string          `json:"type"`
	Priority  string          `json:"priority"`
	Location  models.Location `json:"location"`
	Requester string          `json:"requester"`
}

// NewRequestCreated 从求助生成载荷
func NewRequestCreated(r *models.AssistanceRequest) RequestCreated {
	return RequestCreated{
		ID:        r.ID,
		Title:     r.Title,
		Type:      r.Type,
		Priority:  r.Priority,
		Location:  r.Location,
		Requester: r.Requester,
	}
}

// RequestAccepted request-accepted 载荷，发给求助者
type RequestAccepted struct {
	RequestID  string    `json:"requestId"`
	Responder  string    `json:"responder"`
	AcceptedAt time.Time `json:"acceptedAt"`
}

// StatusChanged alert-status-changed / request-status-changed 载荷
type StatusChanged struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Previous  string    `json:"previous"`
	UpdatedBy string    `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Candidate 匹配到的志愿者
type Candidate struct {
	UserID         string  `json:"userId"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// MatchesFound matches-found 载荷
type MatchesFound struct {
	EntityID   string      `json:"entityId"`
	EntityKind string      `json:"entityKind"`
	Title      string      `json:"title"`
	Radius     float64     `json:"radiusMeters"`
	Candidates []Candidate `json:"candidates"`
}

// CandidateIDs 按排名返回候选人 ID
func (m MatchesFound) CandidateIDs() []string {
	ids := make([]string, len(m.Candidates))
	for i, c := range m.Candidates {
		ids[i] = c.UserID
	}
	return ids
}
