// Package readmodel 在读侧把外键 ID 拼装为用户摘要
package readmodel

import (
	"context"
	"encoding/json"
	"time"

	"AidLink/internal/models"
	"AidLink/pkg/cache"
	apperrors "AidLink/pkg/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	keyPrefix  = "user:summary:"
	DefaultTTL = 5 * time.Minute
)

// Assembler 读模型拼装器，用户摘要走缓存
type Assembler struct {
	db     *gorm.DB
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// New cache 为空时每次都查库
func New(db *gorm.DB, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Assembler {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{db: db, cache: c, ttl: ttl, logger: logger}
}

// Users 批量获取用户摘要，不存在的用户不出现在结果中
func (a *Assembler) Users(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if s, ok := a.cached(ctx, id); ok {
			out[id] = s
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	users, err := models.GetUsersByIDs(a.db.WithContext(ctx), missing)
	if err != nil {
		return nil, apperrors.Storage(err, "load user summaries failed")
	}
	for i := range users {
		s := users[i].Summary()
		out[s.ID] = s
		a.store(ctx, s)
	}
	return out, nil
}

func (a *Assembler) cached(ctx context.Context, id string) (models.UserSummary, bool) {
	var s models.UserSummary
	if a.cache == nil {
		return s, false
	}
	b, ok := a.cache.Get(ctx, keyPrefix+id)
	if !ok {
		return s, false
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, false
	}
	return s, true
}

func (a *Assembler) store(ctx context.Context, s models.UserSummary) {
	if a.cache == nil {
		return
	}
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, keyPrefix+s.ID, b, a.ttl); err != nil {
		a.logger.Debug("cache user summary failed", zap.String("user_id", s.ID), zap.Error(err))
	}
}

func pick(users map[string]models.UserSummary, id string) *models.UserSummary {
	if id == "" {
		return nil
	}
	if s, ok := users[id]; ok {
		return &s
	}
	return nil
}

func pickPtr(users map[string]models.UserSummary, id *string) *models.UserSummary {
	if id == nil {
		return nil
	}
	return pick(users, *id)
}

func alertUserIDs(a *models.Alert) []string {
	ids := []string{a.CreatedBy}
	if a.VerifiedBy != nil {
		ids = append(ids, *a.VerifiedBy)
	}
	for _, r := range a.Responders {
		ids = append(ids, r.UserID)
	}
	return ids
}

func requestUserIDs(r *models.AssistanceRequest) []string {
	ids := []string{r.Requester}
	if r.Responder != nil {
		ids = append(ids, *r.Responder)
	}
	return ids
}

func alertView(a *models.Alert, users map[string]models.UserSummary) AlertView {
	v := AlertView{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Type:        a.Type,
		Severity:    a.Severity,
		Status:      a.Status,
		Location:    a.Location,
		CreatedBy:   pick(users, a.CreatedBy),
		Responders:  make([]ResponderView, len(a.Responders)),
		Images:      a.Images,
		VerifiedBy:  pickPtr(users, a.VerifiedBy),
		ResolvedAt:  a.ResolvedAt,
		Priority:    a.Priority,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if v.Images == nil {
		v.Images = []models.AlertImage{}
	}
	for i, r := range a.Responders {
		v.Responders[i] = ResponderView{User: pick(users, r.UserID), RespondedAt: r.RespondedAt, Status: r.Status}
	}
	return v
}

func requestView(r *models.AssistanceRequest, users map[string]models.UserSummary) RequestView {
	v := RequestView{
		ID:                r.ID,
		Title:             r.Title,
		Description:       r.Description,
		Type:              r.Type,
		Priority:          r.Priority,
		Status:            r.Status,
		Location:          r.Location,
		Requester:         pick(users, r.Requester),
		Responder:         pickPtr(users, r.Responder),
		AcceptedAt:        r.AcceptedAt,
		CompletedAt:       r.CompletedAt,
		UrgentBy:          r.UrgentBy,
		EscalatedAt:       r.EscalatedAt,
		EstimatedDuration: r.EstimatedDuration,
		Requirements:      r.Requirements,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.Feedback.SubmittedAt != nil {
		fb := r.Feedback
		v.Feedback = &fb
	}
	if v.Requirements.SkillsRequired == nil {
		v.Requirements.SkillsRequired = []string{}
	}
	if v.Requirements.EquipmentNeeded == nil {
		v.Requirements.EquipmentNeeded = []string{}
	}
	return v
}

// Alert 拼装单个警报
func (a *Assembler) Alert(ctx context.Context, alert *models.Alert) (*AlertView, error) {
	users, err := a.Users(ctx, alertUserIDs(alert))
	if err != nil {
		return nil, err
	}
	v := alertView(alert, users)
	return &v, nil
}

// Alerts 批量拼装，用户只查一次
func (a *Assembler) Alerts(ctx context.Context, alerts []models.Alert) ([]AlertView, error) {
	var ids []string
	for i := range alerts {
		ids = append(ids, alertUserIDs(&alerts[i])...)
	}
	users, err := a.Users(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]AlertView, len(alerts))
	for i := range alerts {
		out[i] = alertView(&alerts[i], users)
	}
	return out, nil
}

// Request 拼装单个求助
func (a *Assembler) Request(ctx context.Context, r *models.AssistanceRequest) (*RequestView, error) {
	users, err := a.Users(ctx, requestUserIDs(r))
	if err != nil {
		return nil, err
	}
	v := requestView(r, users)
	return &v, nil
}

// Requests 批量拼装求助
func (a *Assembler) Requests(ctx context.Context, reqs []models.AssistanceRequest) ([]RequestView, error) {
	var ids []string
	for i := range reqs {
		ids = append(ids, requestUserIDs(&reqs[i])...)
	}
	users, err := a.Users(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]RequestView, len(reqs))
	for i := range reqs {
		out[i] = requestView(&reqs[i], users)
	}
	return out, nil
}

// Responders 拼装响应者列表
func (a *Assembler) Responders(ctx context.Context, entries []models.AlertResponder) ([]ResponderView, error) {
	ids := make([]string, 0, len(entries))
	for _, r := range entries {
		ids = append(ids, r.UserID)
	}
	users, err := a.Users(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ResponderView, len(entries))
	for i, r := range entries {
		out[i] = ResponderView{User: pick(users, r.UserID), RespondedAt: r.RespondedAt, Status: r.Status}
	}
	return out, nil
}
