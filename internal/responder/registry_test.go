package responder

import (
	"context"
	"sync"
	"testing"
	"time"

	"AidLink/internal/models"
	"AidLink/internal/testutil"
	apperrors "AidLink/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAdvance(t *testing.T) {
	assert.True(t, CanAdvance(models.ResponderResponding, models.ResponderArrived))
	assert.True(t, CanAdvance(models.ResponderResponding, models.ResponderCompleted))
	assert.True(t, CanAdvance(models.ResponderArrived, models.ResponderCompleted))
	assert.False(t, CanAdvance(models.ResponderArrived, models.ResponderResponding))
	assert.False(t, CanAdvance(models.ResponderCompleted, models.ResponderCompleted))
	assert.False(t, CanAdvance("unknown", models.ResponderArrived))
}

func TestAddRejectsDuplicate(t *testing.T) {
	db := testutil.NewDB(t)
	reg := NewRegistry(db)
	ctx := context.Background()

	rec, err := reg.Add(ctx, "alert-1", "user-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.ResponderResponding, rec.Status)

	_, err = reg.Add(ctx, "alert-1", "user-1", time.Now())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateResponse))

	list, err := reg.List(ctx, "alert-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddConcurrentSameUser(t *testing.T) {
	db := testutil.NewDB(t)
	reg := NewRegistry(db)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = reg.Add(ctx, "alert-1", "user-1", time.Now())
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateResponse), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestListKeepsResponseOrder(t *testing.T) {
	db := testutil.NewDB(t)
	reg := NewRegistry(db)
	ctx := context.Background()
	base := time.Now()

	_, err := reg.Add(ctx, "alert-1", "second", base.Add(time.Second))
	require.NoError(t, err)
	_, err = reg.Add(ctx, "alert-1", "first", base)
	require.NoError(t, err)
	_, err = reg.Add(ctx, "alert-2", "other", base)
	require.NoError(t, err)

	list, err := reg.List(ctx, "alert-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].UserID)
	assert.Equal(t, "second", list[1].UserID)
}

func TestUpdateStatus(t *testing.T) {
	db := testutil.NewDB(t)
	reg := NewRegistry(db)
	ctx := context.Background()
	_, err := reg.Add(ctx, "alert-1", "user-1", time.Now())
	require.NoError(t, err)

	rec, err := reg.UpdateStatus(ctx, "alert-1", "user-1", models.ResponderArrived)
	require.NoError(t, err)
	assert.Equal(t, models.ResponderArrived, rec.Status)

	_, err = reg.UpdateStatus(ctx, "alert-1", "user-1", models.ResponderResponding)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	_, err = reg.UpdateStatus(ctx, "alert-1", "user-1", "sleeping")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = reg.UpdateStatus(ctx, "alert-1", "ghost", models.ResponderArrived)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
