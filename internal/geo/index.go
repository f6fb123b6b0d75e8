package geo

import (
	"context"
	"sort"
	"sync"

	"AidLink/internal/models"
	apperrors "AidLink/pkg/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Candidate 邻近查询结果
type Candidate struct {
	UserID         string  `json:"userId"`
	DistanceMeters float64 `json:"distanceMeters"`
}

type entry struct {
	lat, lng  float64
	located   bool
	available bool
	role      string
	skills    map[string]struct{}
}

// Index 志愿者位置/可用性/技能的只读投影，通过显式调用与 User 保持最终一致
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  *zap.Logger
}

// NewIndex 创建空索引
func NewIndex(logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{entries: make(map[string]*entry), logger: logger}
}

func (ix *Index) get(userID string) *entry {
	e, ok := ix.entries[userID]
	if !ok {
		e = &entry{skills: map[string]struct{}{}}
		ix.entries[userID] = e
	}
	return e
}

// UpsertLocation 更新用户位置
func (ix *Index) UpsertLocation(userID string, lat, lng float64) error {
	if userID == "" {
		return apperrors.Validation("userId is required")
	}
	if !models.ValidCoordinates(lat, lng) {
		return apperrors.Validation("coordinates out of range: lat=%v lng=%v", lat, lng)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e := ix.get(userID)
	e.lat, e.lng, e.located = lat, lng, true
	return nil
}

// SetAvailability 更新可用状态
func (ix *Index) SetAvailability(userID string, available bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.get(userID).available = available
}

// SetSkills 替换技能集合
func (ix *Index) SetSkills(userID string, skills []string) {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		set[s] = struct{}{}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.get(userID).skills = set
}

// SetRole 更新角色，非志愿者不会出现在查询结果中
func (ix *Index) SetRole(userID, role string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.get(userID).role = role
}

// Len 索引中的用户数
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// ApplyUser 用完整的 User 覆盖索引条目
func (ix *Index) ApplyUser(u *models.User) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[u.ID] = fromUser(u)
}

func fromUser(u *models.User) *entry {
	e := &entry{
		available: u.Availability,
		role:      u.Role,
		skills:    make(map[string]struct{}, len(u.Skills)),
	}
	if u.HasLocation() {
		e.lat, e.lng, e.located = *u.Latitude, *u.Longitude, true
	}
	for _, s := range u.Skills {
		e.skills[s] = struct{}{}
	}
	return e
}

// QueryNearby 返回半径内可用志愿者 ID，按距离升序，距离相同按 ID 升序
func (ix *Index) QueryNearby(lat, lng, radiusMeters float64, requiredSkills []string) []string {
	cands := ix.QueryNearbyWithDistance(lat, lng, radiusMeters, requiredSkills)
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.UserID
	}
	return ids
}

// QueryNearbyWithDistance 同 QueryNearby，附带距离
func (ix *Index) QueryNearbyWithDistance(lat, lng, radiusMeters float64, requiredSkills []string) []Candidate {
	ix.mu.RLock()
	out := make([]Candidate, 0)
	for id, e := range ix.entries {
		if !e.located || !e.available || e.role != models.RoleVolunteer {
			continue
		}
		// 技能按 OR 语义匹配
		if len(requiredSkills) > 0 && !e.hasAny(requiredSkills) {
			continue
		}
		d := Haversine(lat, lng, e.lat, e.lng)
		if d > radiusMeters {
			continue
		}
		out = append(out, Candidate{UserID: id, DistanceMeters: d})
	}
	ix.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func (e *entry) hasAny(skills []string) bool {
	for _, s := range skills {
		if _, ok := e.skills[s]; ok {
			return true
		}
	}
	return false
}

// Resync 从数据库全量重建索引，重建期间查询仍读旧数据
func (ix *Index) Resync(ctx context.Context, db *gorm.DB) error {
	users, err := models.ListLocatedVolunteers(db.WithContext(ctx))
	if err != nil {
		return apperrors.Storage(err, "load volunteers failed")
	}
	fresh := make(map[string]*entry, len(users))
	for i := range users {
		fresh[users[i].ID] = fromUser(&users[i])
	}
	ix.mu.Lock()
	ix.entries = fresh
	ix.mu.Unlock()
	ix.logger.Debug("geo index resynced", zap.Int("volunteers", len(fresh)))
	return nil
}
