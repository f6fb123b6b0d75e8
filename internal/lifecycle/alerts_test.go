package lifecycle

import (
	"strings"
	"testing"

	"AidLink/internal/models"
	"AidLink/internal/notify"
	apperrors "AidLink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAlertDefaults(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, models.RoleCitizen)

	in := alertInput()
	in.Severity = ""
	alert, err := f.eng.CreateAlert(f.ctx, creator, in)
	require.NoError(t, err)

	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, models.AlertActive, alert.Status)
	assert.Equal(t, models.SeverityMedium, alert.Severity)
	assert.Equal(t, 1, alert.Priority)
	assert.Equal(t, creator.ID, alert.CreatedBy)
	assert.Empty(t, alert.Responders)
	assert.Nil(t, alert.ResolvedAt)
	assert.Nil(t, alert.VerifiedBy)

	stored, err := f.eng.GetAlert(f.ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", stored.Location.Address)
	assert.InDelta(t, 19.07, stored.Location.Latitude, 1e-9)

	created := f.bus.Events(notify.EventAlertCreated)
	require.Len(t, created, 1)
	assert.Empty(t, created[0].To)
	assert.Equal(t, alert.ID, created[0].Payload.(notify.AlertCreated).ID)
}

func TestCreateAlertValidation(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, models.RoleCitizen)

	cases := map[string]func(*CreateAlertInput){
		"empty title":       func(in *CreateAlertInput) { in.Title = "  " },
		"long title":        func(in *CreateAlertInput) { in.Title = strings.Repeat("x", 101) },
		"empty description": func(in *CreateAlertInput) { in.Description = "" },
		"long description":  func(in *CreateAlertInput) { in.Description = strings.Repeat("x", 1001) },
		"bad type":          func(in *CreateAlertInput) { in.Type = "tsunami" },
		"bad severity":      func(in *CreateAlertInput) { in.Severity = "extreme" },
		"priority too high": func(in *CreateAlertInput) { in.Priority = 11 },
		"negative priority": func(in *CreateAlertInput) { in.Priority = -1 },
		"missing location":  func(in *CreateAlertInput) { in.Location = nil },
		"latitude range":    func(in *CreateAlertInput) { in.Location.Latitude = 91 },
		"longitude range":   func(in *CreateAlertInput) { in.Location.Longitude = -181 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := alertInput()
			mutate(&in)
			_, err := f.eng.CreateAlert(f.ctx, creator, in)
			assertCode(t, err, apperrors.CodeValidation)
		})
	}

	var n int64
	require.NoError(t, f.db.Model(&models.Alert{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.bus.All())
}

func TestAlertRespondAndResolveScenario(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, models.RoleCitizen)
	v := f.volunteer(t, 19.071, 72.871)

	alert, err := f.eng.CreateAlert(f.ctx, creator, alertInput())
	require.NoError(t, err)
	assert.Equal(t, models.AlertActive, alert.Status)
	assert.Empty(t, alert.Responders)

	alert, err = f.eng.RespondToAlert(f.ctx, v, alert.ID)
	require.NoError(t, err)
	require.Len(t, alert.Responders, 1)
	assert.Equal(t, v.ID, alert.Responders[0].UserID)
	assert.Equal(t, models.ResponderResponding, alert.Responders[0].Status)
	assert.False(t, alert.Responders[0].RespondedAt.IsZero())

	alert, err = f.eng.UpdateAlertStatus(f.ctx, creator, alert.ID, models.AlertResolved)
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, alert.Status)
	require.NotNil(t, alert.ResolvedAt)
	resolvedAt := *alert.ResolvedAt

	_, err = f.eng.UpdateAlertStatus(f.ctx, creator, alert.ID, models.AlertActive)
	assertCode(t, err, apperrors.CodeInvalidTransition)

	stored, err := f.eng.GetAlert(f.ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, stored.Status)
	require.NotNil(t, stored.ResolvedAt)
	assert.True(t, resolvedAt.Equal(*stored.ResolvedAt))

	changed := f.bus.Events(notify.EventAlertStatusChanged)
	require.Len(t, changed, 1)
	payload := changed[0].Payload.(notify.StatusChanged)
	assert.Equal(t, models.AlertActive, payload.Previous)
	assert.Equal(t, models.AlertResolved, payload.Status)
}

func TestCreateAlertNotifiesNearbyVolunteers(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, models.RoleCitizen)
	near := f.volunteer(t, 19.0705, 72.8705)
	f.volunteer(t, 19.5, 73.5)

	alert, err := f.eng.CreateAlert(f.ctx, creator, alertInput())
	require.NoError(t, err)

	matches := f.bus.Events(notify.EventMatchesFound)
	require.Len(t, matches, 1)
	assert.Equal(t, near.ID, matches[0].To)
	m := matches[0].Payload.(notify.MatchesFound)
	assert.Equal(t, alert.ID, m.EntityID)
	assert.Equal(t, []string{near.ID}, m.CandidateIDs())
}

func TestRespondTwiceIsDuplicate(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, models.RoleCitizen)
	v := f.user(t, models.RoleVolunteer)

	alert, err := f.eng.CreateAlert(f.ctx, creator, alertInput())
	require.NoError(t, err)

	_, err = f.eng.RespondToAlert(f.ctx, v, alert.ID)
	require.NoError(t, err)
	_, err = f.eng.RespondToAlert(f.ctx, v, alert.ID)
	assertCode(t, err, apperrors.CodeDuplicateResponse)

	stored, err := f.eng.GetAlert(f.ctx, alert.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Responders, 1)

	_, err = f.eng.RespondToAlert(f.ctx, v, "missing")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestUpdateAlertStatusAuthorization(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, models.RoleCitizen)
	stranger := f.user(t, models.RoleVolunteer)
	ngo := f.user(t, models.RoleNGO)

	alert, err := f.eng.CreateAlert(f.ctx, creator, alertInput())
	require.NoError(t, err)

	_, err = f.eng.UpdateAlertStatus(f.ctx, stranger, alert.ID, models.AlertInProgress)
	assertCode(t, err, apperrors.CodeUnauthorized)

	updated, err := f.eng.UpdateAlertStatus(f.ctx, ngo, alert.ID, models.AlertInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.AlertInProgress, updated.Status)
	assert.Nil(t, updated.ResolvedAt)

	updated, err = f.eng.UpdateAlertStatus(f.ctx, creator, alert.ID, models.AlertFalseAlarm)
	require.NoError(t, err)
	assert.Equal(t, models.AlertFalseAlarm, updated.Status)
	assert.Nil(t, updated.ResolvedAt)

	_, err = f.eng.UpdateAlertStatus(f.ctx, creator, alert.ID, models.AlertResolved)
	assertCode(t, err, apperrors.CodeInvalidTransition)
}

func TestUpdateAlertStatusRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, models.RoleCitizen)

	_, err := f.eng.UpdateAlertStatus(f.ctx, creator, "nope", models.AlertResolved)
	assertCode(t, err, apperrors.CodeNotFound)

	alert, err := f.eng.CreateAlert(f.ctx, creator, alertInput())
	require.NoError(t, err)
	_, err = f.eng.UpdateAlertStatus(f.ctx, creator, alert.ID, "closed")
	assertCode(t, err, apperrors.CodeValidation)
	_, err = f.eng.UpdateAlertStatus(f.ctx, creator, alert.ID, models.AlertActive)
	assertCode(t, err, apperrors.CodeInvalidTransition)
}

func TestUpdateResponderStatus(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, models.RoleCitizen)
	v := f.user(t, models.RoleVolunteer)
	other := f.user(t, models.RoleVolunteer)

	alert, err := f.eng.CreateAlert(f.ctx, creator, alertInput())
	require.NoError(t, err)
	_, err = f.eng.RespondToAlert(f.ctx, v, alert.ID)
	require.NoError(t, err)

	rec, err := f.eng.UpdateResponderStatus(f.ctx, v, alert.ID, models.ResponderArrived)
	require.NoError(t, err)
	assert.Equal(t, models.ResponderArrived, rec.Status)

	_, err = f.eng.UpdateResponderStatus(f.ctx, v, alert.ID, models.ResponderResponding)
	assertCode(t, err, apperrors.CodeInvalidTransition)

	_, err = f.eng.UpdateResponderStatus(f.ctx, other, alert.ID, models.ResponderArrived)
	assertCode(t, err, apperrors.CodeNotFound)

	list, err := f.eng.ListResponders(f.ctx, alert.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.ResponderArrived, list[0].Status)
}

func TestVerifyAlert(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, models.RoleCitizen)
	admin := f.user(t, models.RoleAdmin)

	alert, err := f.eng.CreateAlert(f.ctx, creator, alertInput())
	require.NoError(t, err)

	_, err = f.eng.VerifyAlert(f.ctx, creator, alert.ID)
	assertCode(t, err, apperrors.CodeUnauthorized)

	verified, err := f.eng.VerifyAlert(f.ctx, admin, alert.ID)
	require.NoError(t, err)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, admin.ID, *verified.VerifiedBy)
	assert.Equal(t, models.AlertActive, verified.Status)

	_, err = f.eng.UpdateAlertStatus(f.ctx, admin, alert.ID, models.AlertResolved)
	require.NoError(t, err)
	_, err = f.eng.VerifyAlert(f.ctx, admin, alert.ID)
	assertCode(t, err, apperrors.CodeInvalidTransition)
}

func TestAttachAlertImage(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, models.RoleCitizen)
	stranger := f.user(t, models.RoleCitizen)

	alert, err := f.eng.CreateAlert(f.ctx, creator, alertInput())
	require.NoError(t, err)

	upload := func() ImageUpload {
		return ImageUpload{Filename: "Street.JPG", ContentType: "image/jpeg", Size: 4, Body: strings.NewReader("jpeg")}
	}

	_, err = f.eng.AttachAlertImage(f.ctx, stranger, alert.ID, upload())
	assertCode(t, err, apperrors.CodeUnauthorized)

	bad := upload()
	bad.ContentType = "text/plain"
	_, err = f.eng.AttachAlertImage(f.ctx, creator, alert.ID, bad)
	assertCode(t, err, apperrors.CodeValidation)

	updated, err := f.eng.AttachAlertImage(f.ctx, creator, alert.ID, upload())
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)
	img := updated.Images[0]
	assert.True(t, strings.HasPrefix(img.PublicID, "alerts/"+alert.ID+"/"))
	assert.True(t, strings.HasSuffix(img.PublicID, ".jpg"))
	assert.Equal(t, "http://img.test/"+img.PublicID, img.URL)
	body, ok := f.images.Get(img.PublicID)
	require.True(t, ok)
	assert.Equal(t, "jpeg", string(body))

	updated, err = f.eng.AttachAlertImage(f.ctx, creator, alert.ID, upload())
	require.NoError(t, err)
	assert.Len(t, updated.Images, 2)
}

func TestAttachAlertImageWithoutStorage(t *testing.T) {
	f := newFixture(t)
	f.eng.images = nil
	creator := f.user(t, models.RoleCitizen)
	alert, err := f.eng.CreateAlert(f.ctx, creator, alertInput())
	require.NoError(t, err)

	_, err = f.eng.AttachAlertImage(f.ctx, creator, alert.ID, ImageUpload{Body: strings.NewReader("x")})
	assertCode(t, err, apperrors.CodeStorageUnavailable)
}
