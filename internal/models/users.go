package models

import (
	"time"

	constants "AidLink/pkg/constant"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// User 用户（认证由外部负责，此处只保存协调需要的字段）
type User struct {
	ID                string    `json:"id" gorm:"primaryKey;size:36"`
	Name              string    `json:"name" gorm:"size:128"`
	Email             string    `json:"email" gorm:"size:128;index"`
	Phone             string    `json:"phone" gorm:"size:32"`
	Avatar            string    `json:"avatar,omitempty" gorm:"size:512"`
	Role              string    `json:"role" gorm:"size:16;index"`
	Verified          bool      `json:"verified"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	Address           string    `json:"address,omitempty" gorm:"size:255"`
	Availability      bool      `json:"availability"` // 仅志愿者有效
	Skills            []string  `json:"skills" gorm:"serializer:json"`
	Rating            float64   `json:"rating"`
	CompletedRequests int       `json:"completedRequests"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// UserSummary 读侧拼装使用的用户摘要
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// Summary 生成用户摘要
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Avatar: u.Avatar}
}

// HasLocation 是否已上报位置
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// CurrentUser 获取认证中间件写入上下文的当前用户
func CurrentUser(c *gin.Context) *User {
	if v, ok := c.Get(constants.UserObjField); ok {
		if u, ok := v.(*User); ok {
			return u
		}
	}
	return nil
}

// GetUserByID 按 ID 查询用户
func GetUserByID(db *gorm.DB, id string) (*User, error) {
	var user User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs 批量查询用户
func GetUsersByIDs(db *gorm.DB, ids []string) ([]User, error) {
	var users []User
	if len(ids) == 0 {
		return users, nil
	}
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListLocatedVolunteers 列出所有已上报位置的志愿者，用于重建地理索引
func ListLocatedVolunteers(db *gorm.DB) ([]User, error) {
	var users []User
	err := db.Where("role = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", RoleVolunteer).
		Find(&users).Error
	return users, err
}

// Migrate 自动迁移所有表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Alert{}, &AlertResponder{}, &AssistanceRequest{})
}
