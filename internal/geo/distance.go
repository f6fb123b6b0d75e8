package geo

import (
	"math"

	"AidLink/internal/models"
)

// EarthRadiusMeters 地球平均半径（IUGG）
const EarthRadiusMeters = 6371008.8

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine 计算两点间大圆距离（米）
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// BoundingBox 计算半径 radius 的外接包围盒，只用于预过滤，精确判断仍用 Haversine
func BoundingBox(lat, lng, radiusMeters float64) *models.BBox {
	dLat := radiusMeters / EarthRadiusMeters * 180 / math.Pi
	box := &models.BBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
	}
	// 靠近极点时经度跨度无界
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		box.WrapsLng = true
		return box
	}
	dLng := dLat / math.Cos(toRad(lat))
	box.MinLng, box.MaxLng = lng-dLng, lng+dLng
	if box.MinLng < -180 || box.MaxLng > 180 {
		box.WrapsLng = true
	}
	return box
}
