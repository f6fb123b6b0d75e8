package readmodel

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"AidLink/internal/models"
	"AidLink/internal/testutil"
	"AidLink/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersUsesCache(t *testing.T) {
	db := testutil.NewDB(t)
	c := cache.NewLocalCache(cache.LocalConfig{MaxSize: 10})
	a := New(db, c, time.Minute, nil)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, models.RoleVolunteer, func(u *models.User) { u.Name = "Asha" })

	got, err := a.Users(ctx, []string{u.ID, u.ID, "", "ghost"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Asha", got[u.ID].Name)

	raw, ok := c.Get(ctx, keyPrefix+u.ID)
	require.True(t, ok)
	var cached models.UserSummary
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, u.ID, cached.ID)

	// 缓存命中时不再读库
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", u.ID).Update("name", "Renamed").Error)
	got, err = a.Users(ctx, []string{u.ID})
	require.NoError(t, err)
	assert.Equal(t, "Asha", got[u.ID].Name)
}

func TestAlertViewJoinsSummaries(t *testing.T) {
	db := testutil.NewDB(t)
	a := New(db, nil, 0, nil)
	creator := testutil.CreateUser(t, db, models.RoleCitizen)
	admin := testutil.CreateUser(t, db, models.RoleAdmin)
	v := testutil.CreateUser(t, db, models.RoleVolunteer)

	verifiedBy := admin.ID
	alert := &models.Alert{
		ID:         "a1",
		Status:     models.AlertActive,
		CreatedBy:  creator.ID,
		VerifiedBy: &verifiedBy,
		Responders: []models.AlertResponder{
			{UserID: v.ID, Status: models.ResponderResponding},
			{UserID: "deleted-user", Status: models.ResponderArrived},
		},
	}

	view, err := a.Alert(context.Background(), alert)
	require.NoError(t, err)
	require.NotNil(t, view.CreatedBy)
	assert.Equal(t, creator.ID, view.CreatedBy.ID)
	require.NotNil(t, view.VerifiedBy)
	assert.Equal(t, models.RoleAdmin, view.VerifiedBy.Role)
	require.Len(t, view.Responders, 2)
	assert.Equal(t, v.ID, view.Responders[0].User.ID)
	assert.Nil(t, view.Responders[1].User)
	assert.NotNil(t, view.Images)

	body, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"type":"Point"`)
}

func TestRequestsViewBatch(t *testing.T) {
	db := testutil.NewDB(t)
	a := New(db, cache.NewGoCache(cache.LocalConfig{}), 0, nil)
	requester := testutil.CreateUser(t, db, models.RoleCitizen)
	v := testutil.CreateUser(t, db, models.RoleVolunteer)
	responder := v.ID
	rating := 4
	submitted := time.Now()

	views, err := a.Requests(context.Background(), []models.AssistanceRequest{
		{ID: "r1", Requester: requester.ID, Status: models.RequestPending},
		{
			ID: "r2", Requester: requester.ID, Responder: &responder, Status: models.RequestCompleted,
			Feedback: models.Feedback{Rating: &rating, SubmittedAt: &submitted},
		},
	})
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, requester.ID, views[0].Requester.ID)
	assert.Nil(t, views[0].Responder)
	assert.Nil(t, views[0].Feedback)
	assert.NotNil(t, views[0].Requirements.SkillsRequired)

	require.NotNil(t, views[1].Responder)
	assert.Equal(t, v.ID, views[1].Responder.ID)
	require.NotNil(t, views[1].Feedback)
	assert.Equal(t, 4, *views[1].Feedback.Rating)
}
