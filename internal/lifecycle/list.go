package lifecycle

import (
	"context"

	"AidLink/internal/geo"
	"AidLink/internal/match"
	"AidLink/internal/models"
	apperrors "AidLink/pkg/errors"

	"gorm.io/gorm"
)

const (
	// StatusAll 列表查询不按状态过滤
	StatusAll = "all"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery 列表查询条件
type ListQuery struct {
	Type     string
	Severity string
	Priority string
	Status   string
	Lat      *float64
	Lng      *float64
	Radius   float64
	Page     int
	Limit    int
}

// Pagination 分页信息
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Page 一页结果
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func (q *ListQuery) normalize(defaultStatus string, statuses []string) error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	switch q.Status {
	case "":
		q.Status = defaultStatus
	case StatusAll:
		q.Status = ""
	default:
		if !models.OneOf(q.Status, statuses) {
			return apperrors.Validation("invalid status %q", q.Status)
		}
	}
	if (q.Lat == nil) != (q.Lng == nil) {
		return apperrors.Validation("lat and lng must be given together")
	}
	if q.Lat != nil {
		if !models.ValidCoordinates(*q.Lat, *q.Lng) {
			return apperrors.Validation("coordinates out of range: lat=%v lng=%v", *q.Lat, *q.Lng)
		}
		if q.Radius < 0 {
			return apperrors.Validation("radius must be positive")
		}
		if q.Radius == 0 {
			q.Radius = match.DefaultRadiusMeters
		}
	}
	return nil
}

func (q *ListQuery) bbox() *models.BBox {
	if q.Lat == nil {
		return nil
	}
	return geo.BoundingBox(*q.Lat, *q.Lng, q.Radius)
}

// ListAlerts 警报列表，默认只看 active，按创建时间倒序
func (e *Engine) ListAlerts(ctx context.Context, q ListQuery) (Page[models.Alert], error) {
	if err := q.normalize(models.AlertActive, models.AlertStatuses); err != nil {
		return Page[models.Alert]{}, err
	}
	if q.Type != "" && !models.OneOf(q.Type, models.AlertTypes) {
		return Page[models.Alert]{}, apperrors.Validation("invalid alert type %q", q.Type)
	}
	if q.Severity != "" && !models.OneOf(q.Severity, models.Severities) {
		return Page[models.Alert]{}, apperrors.Validation("invalid severity %q", q.Severity)
	}
	f := models.ListFilter{Type: q.Type, Severity: q.Severity, Status: q.Status, BBox: q.bbox()}
	base := func() *gorm.DB { return models.AlertQuery(e.db.WithContext(ctx), f) }

	page, err := paginate(base, models.PreloadResponders, q, func(a *models.Alert) models.Location { return a.Location })
	if err != nil {
		return page, apperrors.Storage(err, "list alerts failed")
	}
	for i := range page.Items {
		if page.Items[i].Responders == nil {
			page.Items[i].Responders = []models.AlertResponder{}
		}
	}
	return page, nil
}

// ListRequests 求助列表，默认只看 pending，按创建时间倒序
func (e *Engine) ListRequests(ctx context.Context, q ListQuery) (Page[models.AssistanceRequest], error) {
	if err := q.normalize(models.RequestPending, models.RequestStates); err != nil {
		return Page[models.AssistanceRequest]{}, err
	}
	if q.Type != "" && !models.OneOf(q.Type, models.RequestTypes) {
		return Page[models.AssistanceRequest]{}, apperrors.Validation("invalid request type %q", q.Type)
	}
	if q.Priority != "" && !models.OneOf(q.Priority, models.Priorities) {
		return Page[models.AssistanceRequest]{}, apperrors.Validation("invalid priority %q", q.Priority)
	}
	f := models.ListFilter{Type: q.Type, Priority: q.Priority, Status: q.Status, BBox: q.bbox()}
	base := func() *gorm.DB { return models.RequestQuery(e.db.WithContext(ctx), f) }

	page, err := paginate(base, nil, q, func(r *models.AssistanceRequest) models.Location { return r.Location })
	if err != nil {
		return page, apperrors.Storage(err, "list requests failed")
	}
	return page, nil
}

// paginate 无地理条件时在 SQL 中分页；有地理条件时先用包围盒预过滤，再按精确距离过滤后在内存分页
func paginate[T any](base func() *gorm.DB, prep func(*gorm.DB) *gorm.DB, q ListQuery, locate func(*T) models.Location) (Page[T], error) {
	page := Page[T]{Items: []T{}, Pagination: Pagination{Page: q.Page, Limit: q.Limit}}
	find := func() *gorm.DB {
		if prep == nil {
			return base()
		}
		return prep(base())
	}
	offset := (q.Page - 1) * q.Limit

	if q.Lat == nil {
		var total int64
		if err := base().Count(&total).Error; err != nil {
			return page, err
		}
		if err := find().Offset(offset).Limit(q.Limit).Find(&page.Items).Error; err != nil {
			return page, err
		}
		page.Pagination.Total = total
	} else {
		var all []T
		if err := find().Find(&all).Error; err != nil {
			return page, err
		}
		kept := make([]T, 0, len(all))
		for i := range all {
			loc := locate(&all[i])
			if geo.Haversine(*q.Lat, *q.Lng, loc.Latitude, loc.Longitude) <= q.Radius {
				kept = append(kept, all[i])
			}
		}
		page.Pagination.Total = int64(len(kept))
		if offset < len(kept) {
			end := offset + q.Limit
			if end > len(kept) {
				end = len(kept)
			}
			page.Items = kept[offset:end]
		}
	}
	page.Pagination.Pages = int((page.Pagination.Total + int64(q.Limit) - 1) / int64(q.Limit))
	return page, nil
}
