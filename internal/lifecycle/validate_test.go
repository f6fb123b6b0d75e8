package lifecycle

import (
	"strings"
	"testing"

	"AidLink/internal/models"
	apperrors "AidLink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationMessages(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateAlertInput)
		want   string
	}{
		{"required", func(in *CreateAlertInput) { in.Title = "" }, "title is required"},
		{"string max", func(in *CreateAlertInput) { in.Title = strings.Repeat("x", 101) }, "title must be at most 100 characters"},
		{"number max", func(in *CreateAlertInput) { in.Priority = 11 }, "priority must be at most 10"},
		{"vocabulary", func(in *CreateAlertInput) { in.Severity = "extreme" }, `invalid severity "extreme"`},
		{"nested location", func(in *CreateAlertInput) { in.Location.Latitude = 91 }, "latitude must be at most 90"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := alertInput()
			tc.mutate(&in)
			err := in.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidationDefaultsBeforeTags(t *testing.T) {
	in := alertInput()
	in.Severity = ""
	in.Priority = 0
	require.NoError(t, in.Validate())
	assert.Equal(t, models.SeverityMedium, in.Severity)
	assert.Equal(t, 1, in.Priority)

	fb := FeedbackInput{Rating: 6}
	err := fb.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rating must be at most 5")

	fb = FeedbackInput{Rating: 3, Comment: "  ok  "}
	require.NoError(t, fb.Validate())
	assert.Equal(t, "ok", fb.Comment)
}

func TestNormalizeSkills(t *testing.T) {
	out, err := NormalizeSkills([]string{" medical ", "rescue", "medical"})
	require.NoError(t, err)
	assert.Equal(t, []string{"medical", "rescue"}, out)

	_, err = NormalizeSkills([]string{"juggling"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid skill "juggling"`)
}

func TestLocationInputRequiresCoordinates(t *testing.T) {
	lat := 10.0
	in := LocationInput{Latitude: &lat}
	err := in.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "longitude is required")
}
