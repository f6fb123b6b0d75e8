package lifecycle

import (
	"context"
	"errors"

	"AidLink/internal/models"
	"AidLink/internal/notify"
	apperrors "AidLink/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const entityRequest = "request"

func (e *Engine) loadRequest(ctx context.Context, db *gorm.DB, id string) (*models.AssistanceRequest, error) {
	if id == "" {
		return nil, apperrors.Validation("request id is required")
	}
	var r models.AssistanceRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(entityRequest, id)
	}
	if err != nil {
		return nil, apperrors.Storage(err, "load request failed")
	}
	return &r, nil
}

// CreateRequest 创建求助，初始状态 pending
func (e *Engine) CreateRequest(ctx context.Context, actor Actor, in CreateRequestInput) (_ *models.AssistanceRequest, err error) {
	defer e.track("createRequest", &err)
	now := e.timestamp()
	if err := in.Validate(now); err != nil {
		return nil, err
	}

	req := &models.AssistanceRequest{
		ID:                uuid.NewString(),
		Title:             in.Title,
		Description:       in.Description,
		Type:              in.Type,
		Priority:          in.Priority,
		Status:            models.RequestPending,
		Location:          *in.Location,
		Requester:         actor.ID,
		UrgentBy:          in.UrgentBy,
		EstimatedDuration: in.EstimatedDuration,
		Requirements:      *in.Requirements,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := e.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, apperrors.Storage(err, "create request failed")
	}
	e.transitioned(entityRequest, "", models.RequestPending)
	e.logger.Info("request created",
		zap.String("request_id", req.ID),
		zap.String("type", req.Type),
		zap.String("priority", req.Priority),
		zap.String("requester", actor.ID))

	e.bus.Broadcast(notify.EventRequestCreated, notify.NewRequestCreated(req))
	if e.matcher != nil {
		e.matcher.OnRequestCreated(ctx, req)
	}
	return req, nil
}

// AcceptRequest 以 status=pending 为条件原子地写入 responder/acceptedAt，并发时仅一个成功
func (e *Engine) AcceptRequest(ctx context.Context, actor Actor, requestID string) (_ *models.AssistanceRequest, err error) {
	defer e.track("acceptRequest", &err)
	req, err := e.loadRequest(ctx, e.db, requestID)
	if err != nil {
		return nil, err
	}
	if req.Requester == actor.ID {
		return nil, apperrors.Unauthorized("you cannot accept your own request")
	}
	if req.Status != models.RequestPending {
		return nil, alreadyClaimed(requestID, req.Status)
	}

	now := e.timestamp()
	res := e.db.WithContext(ctx).Model(&models.AssistanceRequest{}).
		Where("id = ? AND status = ?", requestID, models.RequestPending).
		Updates(map[string]interface{}{
			"status":      models.RequestAccepted,
			"responder":   actor.ID,
			"accepted_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return nil, apperrors.Storage(res.Error, "accept request failed")
	}
	if res.RowsAffected == 0 {
		return nil, alreadyClaimed(requestID, "")
	}
	e.transitioned(entityRequest, models.RequestPending, models.RequestAccepted)
	e.logger.Info("request accepted", zap.String("request_id", requestID), zap.String("responder", actor.ID))

	accepted, err := e.loadRequest(ctx, e.db, requestID)
	if err != nil {
		return nil, err
	}
	e.bus.Notify(accepted.Requester, notify.EventRequestAccepted, notify.RequestAccepted{
		RequestID:  requestID,
		Responder:  actor.ID,
		AcceptedAt: now,
	})
	return accepted, nil
}

func alreadyClaimed(requestID, status string) error {
	err := apperrors.WithCode(apperrors.CodeAlreadyClaimed, "request is no longer available").
		WithContext("request_id", requestID)
	if status != "" {
		err = err.WithContext("status", status)
	}
	return err
}

// UpdateRequestStatus 仅求助者或当前响应者可修改；completed 时记录 completedAt 并累计响应者完成数
func (e *Engine) UpdateRequestStatus(ctx context.Context, actor Actor, requestID, status string) (_ *models.AssistanceRequest, err error) {
	defer e.track("updateRequestStatus", &err)
	if !models.OneOf(status, models.RequestStates) {
		return nil, apperrors.Validation("invalid request status %q", status)
	}
	req, err := e.loadRequest(ctx, e.db, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(actor.ID) {
		return nil, apperrors.Unauthorized("not authorized to update this request")
	}
	from := req.Status
	if !CanTransitionRequest(from, status) {
		return nil, apperrors.InvalidTransition(entityRequest, from, status)
	}

	now := e.timestamp()
	updates := map[string]interface{}{"status": status, "updated_at": now}
	if status == models.RequestCompleted {
		updates["completed_at"] = now
	}
	var stale bool
	err = e.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.AssistanceRequest{}).
			Where("id = ? AND status = ?", requestID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			stale = true
			return nil
		}
		if status == models.RequestCompleted && req.Responder != nil {
			return tx.Model(&models.User{}).
				Where("id = ?", *req.Responder).
				UpdateColumn("completed_requests", gorm.Expr("completed_requests + ?", 1)).Error
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Storage(err, "update request status failed")
	}
	if stale {
		cur, err := e.loadRequest(ctx, e.db, requestID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidTransition(entityRequest, cur.Status, status)
	}
	e.transitioned(entityRequest, from, status)

	updated, err := e.loadRequest(ctx, e.db, requestID)
	if err != nil {
		return nil, err
	}
	payload := notify.StatusChanged{
		ID:        requestID,
		Status:    status,
		Previous:  from,
		UpdatedBy: actor.ID,
		UpdatedAt: now,
	}
	e.bus.Notify(updated.Requester, notify.EventRequestStatusChanged, payload)
	if updated.Responder != nil && *updated.Responder != updated.Requester {
		e.bus.Notify(*updated.Responder, notify.EventRequestStatusChanged, payload)
	}
	return updated, nil
}

// SubmitFeedback 求助者在完成后提交一次评价，并刷新响应者评分
func (e *Engine) SubmitFeedback(ctx context.Context, actor Actor, requestID string, in FeedbackInput) (_ *models.AssistanceRequest, err error) {
	defer e.track("submitFeedback", &err)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	req, err := e.loadRequest(ctx, e.db, requestID)
	if err != nil {
		return nil, err
	}
	if req.Requester != actor.ID {
		return nil, apperrors.Unauthorized("only the requester may submit feedback")
	}
	if req.Status != models.RequestCompleted {
		return nil, apperrors.InvalidTransition(entityRequest, req.Status, "feedback")
	}
	if req.Feedback.SubmittedAt != nil {
		return nil, feedbackExists(requestID)
	}

	now := e.timestamp()
	var stale bool
	err = e.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.AssistanceRequest{}).
			Where("id = ? AND status = ? AND feedback_submitted_at IS NULL", requestID, models.RequestCompleted).
			Updates(map[string]interface{}{
				"feedback_rating":       in.Rating,
				"feedback_comment":      in.Comment,
				"feedback_submitted_at": now,
				"updated_at":            now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			stale = true
			return nil
		}
		if req.Responder == nil {
			return nil
		}
		return refreshRating(tx, *req.Responder)
	})
	if err != nil {
		return nil, apperrors.Storage(err, "submit feedback failed")
	}
	if stale {
		return nil, feedbackExists(requestID)
	}
	return e.loadRequest(ctx, e.db, requestID)
}

func feedbackExists(requestID string) error {
	return apperrors.WithCode(apperrors.CodeInvalidTransition, "feedback has already been submitted").
		WithContext("request_id", requestID)
}

// refreshRating 响应者评分 = 其所有已评价求助的平均分
func refreshRating(tx *gorm.DB, userID string) error {
	var avg struct{ Rating float64 }
	err := tx.Model(&models.AssistanceRequest{}).
		Select("COALESCE(AVG(feedback_rating), 0) AS rating").
		Where("responder = ? AND feedback_rating IS NOT NULL", userID).
		Scan(&avg).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).UpdateColumn("rating", avg.Rating).Error
}

// GetRequest 按 ID 读取求助
func (e *Engine) GetRequest(ctx context.Context, requestID string) (*models.AssistanceRequest, error) {
	return e.loadRequest(ctx, e.db, requestID)
}

// MyRequests 当前用户发起的求助，status 为空或 all 时不过滤
func (e *Engine) MyRequests(ctx context.Context, actor Actor, status string) ([]models.AssistanceRequest, error) {
	q := e.db.WithContext(ctx).Where("requester = ?", actor.ID)
	if status != "" && status != StatusAll {
		if !models.OneOf(status, models.RequestStates) {
			return nil, apperrors.Validation("invalid request status %q", status)
		}
		q = q.Where("status = ?", status)
	}
	out := []models.AssistanceRequest{}
	if err := q.Order("created_at DESC").Order("id").Find(&out).Error; err != nil {
		return nil, apperrors.Storage(err, "list my requests failed")
	}
	return out, nil
}

// VolunteerAccepted 当前用户接下的求助，按接单时间倒序
func (e *Engine) VolunteerAccepted(ctx context.Context, actor Actor) ([]models.AssistanceRequest, error) {
	out := []models.AssistanceRequest{}
	err := e.db.WithContext(ctx).
		Where("responder = ?", actor.ID).
		Order("accepted_at DESC").Order("id").
		Find(&out).Error
	if err != nil {
		return nil, apperrors.Storage(err, "list accepted requests failed")
	}
	return out, nil
}
