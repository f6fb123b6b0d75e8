package testutil

import (
	"fmt"
	"strings"
	"testing"

	"AidLink/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 创建迁移好的内存 sqlite，单连接保证同一测试内看到同一个库
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

// CreateUser 插入测试用户
func CreateUser(t testing.TB, db *gorm.DB, role string, opts ...func(*models.User)) *models.User {
	t.Helper()
	u := &models.User{
		ID:     uuid.NewString(),
		Name:   role + "-" + uuid.NewString()[:4],
		Role:   role,
		Skills: []string{},
	}
	for _, o := range opts {
		o(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// At 设置用户位置
func At(lat, lng float64) func(*models.User) {
	return func(u *models.User) {
		u.Latitude, u.Longitude = &lat, &lng
	}
}

// Available 设置志愿者可用
func Available(u *models.User) { u.Availability = true }

// WithSkills 设置技能
func WithSkills(skills ...string) func(*models.User) {
	return func(u *models.User) { u.Skills = skills }
}
