package lifecycle

import (
	"testing"

	"AidLink/internal/models"
	apperrors "AidLink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nearMumbai() NearbyQuery {
	return NearbyQuery{Lat: ptr(19.07), Lng: ptr(72.87)}
}

func TestUpdateUserLocationRefreshesIndex(t *testing.T) {
	f := newFixture(t)
	v := f.user(t, models.RoleVolunteer, func(u *models.User) { u.Availability = true })

	found, err := f.eng.QueryNearbyVolunteers(f.ctx, nearMumbai())
	require.NoError(t, err)
	assert.Empty(t, found)

	u, err := f.eng.UpdateUserLocation(f.ctx, v, LocationInput{Latitude: ptr(19.071), Longitude: ptr(72.871), Address: "Dadar"})
	require.NoError(t, err)
	require.True(t, u.HasLocation())
	assert.Equal(t, "Dadar", u.Address)

	found, err = f.eng.QueryNearbyVolunteers(f.ctx, nearMumbai())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, v.ID, found[0].UserID)
	assert.Less(t, found[0].DistanceMeters, 200.0)

	_, err = f.eng.UpdateUserLocation(f.ctx, v, LocationInput{Latitude: ptr(95), Longitude: ptr(0)})
	assertCode(t, err, apperrors.CodeValidation)
	_, err = f.eng.UpdateUserLocation(f.ctx, v, LocationInput{Latitude: ptr(1)})
	assertCode(t, err, apperrors.CodeValidation)
	_, err = f.eng.UpdateUserLocation(f.ctx, Actor{ID: "ghost"}, LocationInput{Latitude: ptr(1), Longitude: ptr(1)})
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestUpdateAvailability(t *testing.T) {
	f := newFixture(t)
	v := f.volunteer(t, 19.071, 72.871)
	citizen := f.user(t, models.RoleCitizen)

	u, err := f.eng.UpdateAvailability(f.ctx, v, false)
	require.NoError(t, err)
	assert.False(t, u.Availability)
	found, err := f.eng.QueryNearbyVolunteers(f.ctx, nearMumbai())
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = f.eng.UpdateAvailability(f.ctx, v, true)
	require.NoError(t, err)
	found, err = f.eng.QueryNearbyVolunteers(f.ctx, nearMumbai())
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = f.eng.UpdateAvailability(f.ctx, citizen, true)
	assertCode(t, err, apperrors.CodeUnauthorized)
}

func TestUpdateSkills(t *testing.T) {
	f := newFixture(t)
	v := f.volunteer(t, 19.071, 72.871)
	citizen := f.user(t, models.RoleCitizen)

	u, err := f.eng.UpdateSkills(f.ctx, v, []string{"rescue", "medical", "rescue"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rescue", "medical"}, u.Skills)

	q := nearMumbai()
	q.Skills = []string{"medical"}
	found, err := f.eng.QueryNearbyVolunteers(f.ctx, q)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	q.Skills = []string{"shelter"}
	found, err = f.eng.QueryNearbyVolunteers(f.ctx, q)
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = f.eng.UpdateSkills(f.ctx, v, []string{"juggling"})
	assertCode(t, err, apperrors.CodeValidation)
	_, err = f.eng.UpdateSkills(f.ctx, citizen, []string{"rescue"})
	assertCode(t, err, apperrors.CodeUnauthorized)
}

func TestQueryNearbyVolunteers(t *testing.T) {
	f := newFixture(t)
	near := f.volunteer(t, 19.0705, 72.8705)
	mid := f.volunteer(t, 19.08, 72.88)
	f.volunteer(t, 19.5, 73.5)

	found, err := f.eng.QueryNearbyVolunteers(f.ctx, nearMumbai())
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, near.ID, found[0].UserID)
	assert.Equal(t, mid.ID, found[1].UserID)

	q := nearMumbai()
	q.Limit = 1
	found, err = f.eng.QueryNearbyVolunteers(f.ctx, q)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = f.eng.QueryNearbyVolunteers(f.ctx, NearbyQuery{})
	assertCode(t, err, apperrors.CodeValidation)
	q = nearMumbai()
	q.Radius = -1
	_, err = f.eng.QueryNearbyVolunteers(f.ctx, q)
	assertCode(t, err, apperrors.CodeValidation)
}

func TestGetUserStats(t *testing.T) {
	f := newFixture(t)
	citizen := f.user(t, models.RoleCitizen)
	v := f.user(t, models.RoleVolunteer, func(u *models.User) { u.Verified = true })

	_, err := f.eng.CreateAlert(f.ctx, citizen, alertInput())
	require.NoError(t, err)
	req, err := f.eng.CreateRequest(f.ctx, citizen, requestInput())
	require.NoError(t, err)
	_, err = f.eng.CreateRequest(f.ctx, citizen, requestInput())
	require.NoError(t, err)
	_, err = f.eng.AcceptRequest(f.ctx, v, req.ID)
	require.NoError(t, err)

	stats, err := f.eng.GetUserStats(f.ctx, citizen)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AlertsCreated)
	assert.Equal(t, int64(2), stats.RequestsCreated)
	assert.Equal(t, models.RoleCitizen, stats.Role)

	stats, err = f.eng.GetUserStats(f.ctx, v)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ActiveAssignments)
	assert.True(t, stats.Verified)
	assert.Zero(t, stats.CompletedRequests)

	_, err = f.eng.GetUserStats(f.ctx, Actor{ID: "ghost"})
	assertCode(t, err, apperrors.CodeNotFound)
}
