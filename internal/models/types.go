package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// 角色
const (
	RoleCitizen   = "citizen"
	RoleVolunteer = "volunteer"
	RoleNGO       = "ngo"
	RoleAdmin     = "admin"
)

// 警报类型
const (
	AlertTypeFire       = "fire"
	AlertTypeFlood      = "flood"
	AlertTypeMedical    = "medical"
	AlertTypeAccident   = "accident"
	AlertTypeEarthquake = "earthquake"
	AlertTypeStorm      = "storm"
	AlertTypeOther      = "other"
)

// 警报严重程度
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// 警报状态
const (
	AlertActive     = "active"
	AlertInProgress = "in-progress"
	AlertResolved   = "resolved"
	AlertFalseAlarm = "false-alarm"
)

// 响应者子状态
const (
	ResponderResponding = "responding"
	ResponderArrived    = "arrived"
	ResponderCompleted  = "completed"
)

// 求助类型
const (
	RequestTypeMedical        = "medical"
	RequestTypeFood           = "food"
	RequestTypeShelter        = "shelter"
	RequestTypeTransportation = "transportation"
	RequestTypeRescue         = "rescue"
	RequestTypeSupplies       = "supplies"
	RequestTypeOther          = "other"
)

// 求助优先级
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// 求助状态
const (
	RequestPending    = "pending"
	RequestAccepted   = "accepted"
	RequestInProgress = "in-progress"
	RequestCompleted  = "completed"
	RequestCancelled  = "cancelled"
)

var (
	Roles          = []string{RoleCitizen, RoleVolunteer, RoleNGO, RoleAdmin}
	AlertTypes     = []string{AlertTypeFire, AlertTypeFlood, AlertTypeMedical, AlertTypeAccident, AlertTypeEarthquake, AlertTypeStorm, AlertTypeOther}
	Severities     = []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	AlertStatuses  = []string{AlertActive, AlertInProgress, AlertResolved, AlertFalseAlarm}
	RequestTypes   = []string{RequestTypeMedical, RequestTypeFood, RequestTypeShelter, RequestTypeTransportation, RequestTypeRescue, RequestTypeSupplies, RequestTypeOther}
	Priorities     = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	RequestStates  = []string{RequestPending, RequestAccepted, RequestInProgress, RequestCompleted, RequestCancelled}
	ResponderSteps = []string{ResponderResponding, ResponderArrived, ResponderCompleted}
	// Skills 志愿者技能词表
	Skills = []string{"medical", "rescue", "food-distribution", "transportation", "shelter", "communication"}
)

// OneOf 判断 v 是否在枚举中
func OneOf(v string, set []string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Location 坐标 + 地址，库内存三列，序列化为 GeoJSON Point
type Location struct {
	Latitude  float64 `gorm:"column:latitude" validate:"min=-90,max=90"`
	Longitude float64 `gorm:"column:longitude" validate:"min=-180,max=180"`
	Address   string  `gorm:"column:address;size:255" validate:"max=255"`
}

type geoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address"`
}

// MarshalJSON 输出 {type:"Point", coordinates:[lng,lat], address}
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoPoint{
		Type:        "Point",
		Coordinates: [2]float64{l.Longitude, l.Latitude},
		Address:     l.Address,
	})
}

// UnmarshalJSON 接受 GeoJSON 形式，也接受 {latitude, longitude, address}
func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
		Address     string    `json:"address"`
		Latitude    *float64  `json:"latitude"`
		Longitude   *float64  `json:"longitude"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Address = raw.Address
	switch {
	case raw.Latitude != nil && raw.Longitude != nil:
		l.Latitude, l.Longitude = *raw.Latitude, *raw.Longitude
	case len(raw.Coordinates) == 2:
		l.Longitude, l.Latitude = raw.Coordinates[0], raw.Coordinates[1]
	default:
		return fmt.Errorf("location requires coordinates")
	}
	return nil
}

// ValidCoordinates 坐标是否在合法范围
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Requirements 求助需求
type Requirements struct {
	PeopleNeeded    int      `json:"peopleNeeded" validate:"min=1"`
	SkillsRequired  []string `json:"skillsRequired"`
	EquipmentNeeded []string `json:"equipmentNeeded"`
}

// Feedback 求助完成后的评价
type Feedback struct {
	Rating      *int       `json:"rating,omitempty" gorm:"column:feedback_rating"`
	Comment     string     `json:"comment,omitempty" gorm:"column:feedback_comment;size:1000"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty" gorm:"column:feedback_submitted_at"`
}

// AlertImage 警报图片
type AlertImage struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}
