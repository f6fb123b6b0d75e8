package models

import "gorm.io/gorm"

// BBox 经纬度包围盒，用于地理查询的 SQL 预过滤
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	// WrapsLng 跨越 180 度经线时不按经度过滤
	WrapsLng bool
}

// ListFilter 警报/求助列表过滤条件，空值表示不过滤
type ListFilter struct {
	Type     string
	Severity string // 仅警报
	Priority string // 仅求助
	Status   string
	BBox     *BBox
}

func applyBBox(q *gorm.DB, box *BBox) *gorm.DB {
	if box == nil {
		return q
	}
	q = q.Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
	if !box.WrapsLng {
		q = q.Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}
	return q
}

// AlertQuery 按过滤条件构造警报查询，按创建时间倒序
func AlertQuery(db *gorm.DB, f ListFilter) *gorm.DB {
	q := db.Model(&Alert{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return applyBBox(q, f.BBox).Order("created_at DESC").Order("id")
}

// RequestQuery 按过滤条件构造求助查询，按创建时间倒序
func RequestQuery(db *gorm.DB, f ListFilter) *gorm.DB {
	q := db.Model(&AssistanceRequest{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return applyBBox(q, f.BBox).Order("created_at DESC").Order("id")
}

// PreloadResponders 预加载警报响应者，按响应时间排序
func PreloadResponders(db *gorm.DB) *gorm.DB {
	return db.Preload("Responders", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("responded_at ASC").Order("id ASC")
	})
}
