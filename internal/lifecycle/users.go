package lifecycle

import (
	"context"
	"errors"

	"AidLink/internal/geo"
	"AidLink/internal/match"
	"AidLink/internal/models"
	apperrors "AidLink/pkg/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (e *Engine) loadUser(ctx context.Context, id string) (*models.User, error) {
	u, err := models.GetUserByID(e.db.WithContext(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user", id)
	}
	if err != nil {
		return nil, apperrors.Storage(err, "load user failed")
	}
	return u, nil
}

// refreshIndex 写库成功后把用户最新状态同步到地理索引
func (e *Engine) refreshIndex(ctx context.Context, id string) (*models.User, error) {
	u, err := e.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	e.index.ApplyUser(u)
	return u, nil
}

// UpdateUserLocation 用户更新自己的位置
func (e *Engine) UpdateUserLocation(ctx context.Context, actor Actor, in LocationInput) (_ *models.User, err error) {
	defer e.track("updateUserLocation", &err)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res := e.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", actor.ID).
		Updates(map[string]interface{}{
			"latitude":   *in.Latitude,
			"longitude":  *in.Longitude,
			"address":    in.Address,
			"updated_at": e.timestamp(),
		})
	if res.Error != nil {
		return nil, apperrors.Storage(res.Error, "update location failed")
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("user", actor.ID)
	}
	return e.refreshIndex(ctx, actor.ID)
}

// UpdateAvailability 仅志愿者可切换可用状态
func (e *Engine) UpdateAvailability(ctx context.Context, actor Actor, available bool) (_ *models.User, err error) {
	defer e.track("updateAvailability", &err)
	u, err := e.loadUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleVolunteer {
		return nil, apperrors.Unauthorized("only volunteers can update availability")
	}
	err = e.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).
		Updates(map[string]interface{}{"availability": available, "updated_at": e.timestamp()}).Error
	if err != nil {
		return nil, apperrors.Storage(err, "update availability failed")
	}
	e.logger.Debug("availability updated", zap.String("user_id", u.ID), zap.Bool("available", available))
	return e.refreshIndex(ctx, u.ID)
}

// UpdateSkills 仅志愿者可更新技能，技能必须在词表内
func (e *Engine) UpdateSkills(ctx context.Context, actor Actor, skills []string) (_ *models.User, err error) {
	defer e.track("updateSkills", &err)
	normalized, err := NormalizeSkills(skills)
	if err != nil {
		return nil, err
	}
	u, err := e.loadUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleVolunteer {
		return nil, apperrors.Unauthorized("only volunteers can update skills")
	}
	err = e.db.WithContext(ctx).Model(u).Select("Skills", "UpdatedAt").
		Updates(&models.User{Skills: normalized, UpdatedAt: e.timestamp()}).Error
	if err != nil {
		return nil, apperrors.Storage(err, "update skills failed")
	}
	return e.refreshIndex(ctx, u.ID)
}

// NearbyQuery 附近志愿者查询
type NearbyQuery struct {
	Lat    *float64
	Lng    *float64
	Radius float64
	Skills []string
	Limit  int
}

// QueryNearbyVolunteers 半径内可用志愿者，按距离升序
func (e *Engine) QueryNearbyVolunteers(_ context.Context, q NearbyQuery) ([]geo.Candidate, error) {
	if q.Lat == nil || q.Lng == nil {
		return nil, apperrors.Validation("latitude and longitude are required")
	}
	if !models.ValidCoordinates(*q.Lat, *q.Lng) {
		return nil, apperrors.Validation("coordinates out of range: lat=%v lng=%v", *q.Lat, *q.Lng)
	}
	if q.Radius < 0 {
		return nil, apperrors.Validation("radius must be positive")
	}
	if q.Radius == 0 {
		q.Radius = match.DefaultRadiusMeters
	}
	if q.Limit <= 0 {
		q.Limit = match.DefaultLimit
	}
	skills, err := NormalizeSkills(q.Skills)
	if err != nil {
		return nil, err
	}
	out := e.index.QueryNearbyWithDistance(*q.Lat, *q.Lng, q.Radius, skills)
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// UserStats 用户统计
type UserStats struct {
	CompletedRequests int     `json:"completedRequests"`
	Rating            float64 `json:"rating"`
	Verified          bool    `json:"verified"`
	Role              string  `json:"role"`
	AlertsCreated     int64   `json:"alertsCreated"`
	RequestsCreated   int64   `json:"requestsCreated"`
	ActiveAssignments int64   `json:"activeAssignments"`
}

// GetUserStats 当前用户的统计信息
func (e *Engine) GetUserStats(ctx context.Context, actor Actor) (*UserStats, error) {
	u, err := e.loadUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	stats := &UserStats{
		CompletedRequests: u.CompletedRequests,
		Rating:            u.Rating,
		Verified:          u.Verified,
		Role:              u.Role,
	}
	db := e.db.WithContext(ctx)
	if err := db.Model(&models.Alert{}).Where("created_by = ?", u.ID).Count(&stats.AlertsCreated).Error; err != nil {
		return nil, apperrors.Storage(err, "count alerts failed")
	}
	if err := db.Model(&models.AssistanceRequest{}).Where("requester = ?", u.ID).Count(&stats.RequestsCreated).Error; err != nil {
		return nil, apperrors.Storage(err, "count requests failed")
	}
	err = db.Model(&models.AssistanceRequest{}).
		Where("responder = ? AND status IN ?", u.ID, []string{models.RequestAccepted, models.RequestInProgress}).
		Count(&stats.ActiveAssignments).Error
	if err != nil {
		return nil, apperrors.Storage(err, "count assignments failed")
	}
	return stats, nil
}
