package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"AidLink/internal/models"
	"AidLink/internal/notify"
	apperrors "AidLink/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const entityAlert = "alert"

func (e *Engine) loadAlert(ctx context.Context, id string, withResponders bool) (*models.Alert, error) {
	if id == "" {
		return nil, apperrors.Validation("alert id is required")
	}
	q := e.db.WithContext(ctx)
	if withResponders {
		q = models.PreloadResponders(q)
	}
	var a models.Alert
	err := q.Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(entityAlert, id)
	}
	if err != nil {
		return nil, apperrors.Storage(err, "load alert failed")
	}
	if a.Responders == nil {
		a.Responders = []models.AlertResponder{}
	}
	if a.Images == nil {
		a.Images = []models.AlertImage{}
	}
	return &a, nil
}

// CreateAlert 任意已认证用户创建警报，初始状态 active
func (e *Engine) CreateAlert(ctx context.Context, actor Actor, in CreateAlertInput) (_ *models.Alert, err error) {
	defer e.track("createAlert", &err)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := e.timestamp()
	alert := &models.Alert{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Severity:    in.Severity,
		Status:      models.AlertActive,
		Location:    *in.Location,
		CreatedBy:   actor.ID,
		Responders:  []models.AlertResponder{},
		Images:      []models.AlertImage{},
		Priority:    in.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.db.WithContext(ctx).Create(alert).Error; err != nil {
		return nil, apperrors.Storage(err, "create alert failed")
	}
	e.transitioned(entityAlert, "", models.AlertActive)
	e.logger.Info("alert created",
		zap.String("alert_id", alert.ID),
		zap.String("type", alert.Type),
		zap.String("severity", alert.Severity),
		zap.String("created_by", actor.ID))

	e.bus.Broadcast(notify.EventAlertCreated, notify.NewAlertCreated(alert))
	if e.matcher != nil {
		e.matcher.OnAlertCreated(ctx, alert)
	}
	return alert, nil
}

// UpdateAlertStatus 仅创建者或 ngo/admin 可修改；resolved 时记录 resolvedAt
func (e *Engine) UpdateAlertStatus(ctx context.Context, actor Actor, alertID, status string) (_ *models.Alert, err error) {
	defer e.track("updateAlertStatus", &err)
	if !models.OneOf(status, models.AlertStatuses) {
		return nil, apperrors.Validation("invalid alert status %q", status)
	}
	alert, err := e.loadAlert(ctx, alertID, false)
	if err != nil {
		return nil, err
	}
	if alert.CreatedBy != actor.ID && !actor.elevated() {
		return nil, apperrors.Unauthorized("only the creator or an ngo/admin may update this alert")
	}
	from := alert.Status
	if !CanTransitionAlert(from, status) {
		return nil, apperrors.InvalidTransition(entityAlert, from, status)
	}

	now := e.timestamp()
	updates := map[string]interface{}{"status": status, "updated_at": now}
	if status == models.AlertResolved {
		updates["resolved_at"] = now
	}
	res := e.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND status = ?", alertID, from).
		Updates(updates)
	if res.Error != nil {
		return nil, apperrors.Storage(res.Error, "update alert status failed")
	}
	if res.RowsAffected == 0 {
		// 并发修改，以最新状态判定
		cur, err := e.loadAlert(ctx, alertID, false)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidTransition(entityAlert, cur.Status, status)
	}
	e.transitioned(entityAlert, from, status)

	updated, err := e.loadAlert(ctx, alertID, true)
	if err != nil {
		return nil, err
	}
	e.bus.Broadcast(notify.EventAlertStatusChanged, notify.StatusChanged{
		ID:        alertID,
		Status:    status,
		Previous:  from,
		UpdatedBy: actor.ID,
		UpdatedAt: now,
	})
	return updated, nil
}

// RespondToAlert 追加响应者，重复响应返回 DuplicateResponse
func (e *Engine) RespondToAlert(ctx context.Context, actor Actor, alertID string) (_ *models.Alert, err error) {
	defer e.track("respondToAlert", &err)
	if _, err := e.loadAlert(ctx, alertID, false); err != nil {
		return nil, err
	}
	if _, err := e.responders.Add(ctx, alertID, actor.ID, e.timestamp()); err != nil {
		return nil, err
	}
	e.logger.Info("alert responder added", zap.String("alert_id", alertID), zap.String("user_id", actor.ID))
	return e.loadAlert(ctx, alertID, true)
}

// UpdateResponderStatus 响应者推进自己的子状态
func (e *Engine) UpdateResponderStatus(ctx context.Context, actor Actor, alertID, status string) (_ *models.AlertResponder, err error) {
	defer e.track("updateResponderStatus", &err)
	if _, err := e.loadAlert(ctx, alertID, false); err != nil {
		return nil, err
	}
	return e.responders.UpdateStatus(ctx, alertID, actor.ID, status)
}

// ListResponders 按响应顺序列出警报的响应者
func (e *Engine) ListResponders(ctx context.Context, alertID string) ([]models.AlertResponder, error) {
	if _, err := e.loadAlert(ctx, alertID, false); err != nil {
		return nil, err
	}
	return e.responders.List(ctx, alertID)
}

// VerifyAlert ngo/admin 核实警报
func (e *Engine) VerifyAlert(ctx context.Context, actor Actor, alertID string) (_ *models.Alert, err error) {
	defer e.track("verifyAlert", &err)
	if !actor.elevated() {
		return nil, apperrors.Unauthorized("only an ngo/admin may verify alerts")
	}
	alert, err := e.loadAlert(ctx, alertID, false)
	if err != nil {
		return nil, err
	}
	if alert.IsTerminal() {
		return nil, apperrors.InvalidTransition(entityAlert, alert.Status, "verified")
	}
	res := e.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND status = ?", alertID, alert.Status).
		Updates(map[string]interface{}{"verified_by": actor.ID, "updated_at": e.timestamp()})
	if res.Error != nil {
		return nil, apperrors.Storage(res.Error, "verify alert failed")
	}
	if res.RowsAffected == 0 {
		cur, err := e.loadAlert(ctx, alertID, false)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidTransition(entityAlert, cur.Status, "verified")
	}
	return e.loadAlert(ctx, alertID, true)
}

// ImageUpload 待上传的警报图片
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachAlertImage 创建者上传图片并追加到警报
func (e *Engine) AttachAlertImage(ctx context.Context, actor Actor, alertID string, img ImageUpload) (_ *models.Alert, err error) {
	defer e.track("attachAlertImage", &err)
	if e.images == nil {
		return nil, apperrors.WithCode(apperrors.CodeStorageUnavailable, "image storage is not configured")
	}
	if img.Body == nil {
		return nil, apperrors.Validation("image file is required")
	}
	if img.ContentType != "" && !strings.HasPrefix(img.ContentType, "image/") {
		return nil, apperrors.Validation("unsupported content type %q", img.ContentType)
	}
	alert, err := e.loadAlert(ctx, alertID, false)
	if err != nil {
		return nil, err
	}
	if alert.CreatedBy != actor.ID && !actor.elevated() {
		return nil, apperrors.Unauthorized("only the creator or an ngo/admin may attach images")
	}

	publicID := fmt.Sprintf("alerts/%s/%s%s", alertID, uuid.NewString(), strings.ToLower(path.Ext(img.Filename)))
	if err := e.images.Write(ctx, publicID, img.Body, img.Size, img.ContentType); err != nil {
		return nil, apperrors.Storage(err, "upload image failed")
	}
	image := models.AlertImage{URL: e.images.PublicURL(publicID), PublicID: publicID}

	err = e.tx(ctx, func(tx *gorm.DB) error {
		var cur models.Alert
		if err := tx.Select("id", "images").Where("id = ?", alertID).First(&cur).Error; err != nil {
			return err
		}
		cur.Images = append(cur.Images, image)
		return tx.Model(&cur).Select("Images", "UpdatedAt").
			Updates(&models.Alert{Images: cur.Images, UpdatedAt: e.timestamp()}).Error
	})
	if err != nil {
		if delErr := e.images.Delete(ctx, publicID); delErr != nil {
			e.logger.Warn("cleanup orphan image failed", zap.String("public_id", publicID), zap.Error(delErr))
		}
		return nil, apperrors.Storage(err, "attach image failed")
	}
	return e.loadAlert(ctx, alertID, true)
}

// GetAlert 按 ID 读取警报及响应者
func (e *Engine) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	return e.loadAlert(ctx, alertID, true)
}
