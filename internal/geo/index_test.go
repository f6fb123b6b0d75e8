package geo

import (
	"context"
	"fmt"
	"testing"

	"AidLink/internal/models"
	"AidLink/internal/testutil"
	apperrors "AidLink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func volunteer(ix *Index, id string, lat, lng float64, skills ...string) {
	_ = ix.UpsertLocation(id, lat, lng)
	ix.SetRole(id, models.RoleVolunteer)
	ix.SetAvailability(id, true)
	ix.SetSkills(id, skills)
}

func TestHaversineKnownDistance(t *testing.T) {
	// 孟买 -> 浦那 约 120km
	d := Haversine(19.0760, 72.8777, 18.5204, 73.8567)
	assert.InDelta(t, 120_000, d, 5_000)
	assert.Equal(t, 0.0, Haversine(10, 10, 10, 10))
}

func TestQueryNearbyExcludesFarVolunteer(t *testing.T) {
	ix := NewIndex(nil)
	volunteer(ix, "V1", 19.070, 72.870)
	volunteer(ix, "V2", 19.200, 73.000)

	assert.Equal(t, []string{"V1"}, ix.QueryNearby(19.071, 72.871, 5000, nil))
	assert.Equal(t, []string{"V1", "V2"}, ix.QueryNearby(19.071, 72.871, 50000, nil))
}

func TestQueryNearbyFiltersAvailabilityAndRole(t *testing.T) {
	ix := NewIndex(nil)
	volunteer(ix, "busy", 10, 10)
	ix.SetAvailability("busy", false)
	volunteer(ix, "citizen", 10, 10)
	ix.SetRole("citizen", models.RoleCitizen)
	volunteer(ix, "ok", 10, 10.001)
	ix.SetAvailability("nolocation", true)
	ix.SetRole("nolocation", models.RoleVolunteer)

	assert.Equal(t, []string{"ok"}, ix.QueryNearby(10, 10, 1000, nil))
}

func TestQueryNearbySkillsUseOrSemantics(t *testing.T) {
	ix := NewIndex(nil)
	volunteer(ix, "medic", 0, 0, "medical")
	volunteer(ix, "driver", 0, 0.001, "transportation")
	volunteer(ix, "cook", 0, 0.002, "food-distribution")

	got := ix.QueryNearby(0, 0, 10_000, []string{"medical", "transportation"})
	assert.Equal(t, []string{"medic", "driver"}, got)
}

func TestQueryNearbySortedWithTieBreak(t *testing.T) {
	ix := NewIndex(nil)
	volunteer(ix, "b", 1, 1)
	volunteer(ix, "a", 1, 1)
	volunteer(ix, "c", 1, 1.0005)

	got := ix.QueryNearbyWithDistance(1, 1, 1000, nil)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].UserID)
	assert.Equal(t, "b", got[1].UserID)
	assert.Equal(t, "c", got[2].UserID)
}

func TestQueryNearbyNeverExceedsRadius(t *testing.T) {
	ix := NewIndex(nil)
	for i := 0; i < 200; i++ {
		lat := 40 + float64(i%20)*0.01
		lng := -74 + float64(i/20)*0.01
		volunteer(ix, fmt.Sprintf("v%03d", i), lat, lng)
	}
	const radius = 7_500.0
	got := ix.QueryNearbyWithDistance(40.1, -73.95, radius, nil)
	require.NotEmpty(t, got)
	for i, c := range got {
		assert.LessOrEqual(t, c.DistanceMeters, radius)
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].DistanceMeters, c.DistanceMeters)
		}
	}
}

func TestUpsertLocationValidates(t *testing.T) {
	ix := NewIndex(nil)
	err := ix.UpsertLocation("u", 91, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	err = ix.UpsertLocation("", 0, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	box := BoundingBox(19.07, 72.87, 10_000)
	assert.False(t, box.WrapsLng)
	assert.Less(t, box.MinLat, 19.07)
	assert.Greater(t, box.MaxLng, 72.87)
	// 东西 10km 处的点必须在盒内
	assert.Greater(t, box.MaxLng, 72.87+0.09)

	polar := BoundingBox(89.99, 0, 10_000)
	assert.True(t, polar.WrapsLng)
}

func TestResyncFromDatabase(t *testing.T) {
	db := testutil.NewDB(t)
	v := testutil.CreateUser(t, db, models.RoleVolunteer, testutil.At(19.07, 72.87), testutil.Available, testutil.WithSkills("rescue"))
	testutil.CreateUser(t, db, models.RoleVolunteer) // 无位置
	testutil.CreateUser(t, db, models.RoleCitizen, testutil.At(19.07, 72.87))

	ix := NewIndex(nil)
	volunteer(ix, "stale", 19.07, 72.87)
	require.NoError(t, ix.Resync(context.Background(), db))

	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, []string{v.ID}, ix.QueryNearby(19.07, 72.87, 100, []string{"rescue"}))
}
