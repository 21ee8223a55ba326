package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spisok/internal/moderation/models"
	"spisok/pkg/platform/sentinel"
)

func newRegistration(t *testing.T) *models.Registration {
	t.Helper()
	reg, err := models.NewRegistration(models.SubjectExecutor, "exec-1", "x@example.com", true, time.Now(), "admin-1")
	require.NoError(t, err)
	return reg
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	st := NewMemory[*models.Registration]()
	reg := newRegistration(t)

	require.NoError(t, st.Create(ctx, reg))
	err := st.Create(ctx, reg)
	assert.True(t, errors.Is(err, sentinel.ErrConflict))
}

func TestCreateWithRollsBackOnCommitError(t *testing.T) {
	ctx := context.Background()
	st := NewMemory[*models.Registration]()
	reg := newRegistration(t)

	boom := errors.New("ledger down")
	err := st.CreateWith(ctx, reg, func(*models.Registration) error { return boom })
	require.ErrorIs(t, err, boom)

	_, _, err = st.Get(ctx, reg.ID)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestGetReturnsIsolatedSnapshot(t *testing.T) {
	ctx := context.Background()
	st := NewMemory[*models.Registration]()
	reg := newRegistration(t)
	require.NoError(t, st.Create(ctx, reg))

	snap, version, err := st.Get(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)

	snap.Status = models.RegistrationRejected
	again, _, err := st.Get(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationNew, again.Status)
}

func TestUpdateStaleVersion(t *testing.T) {
	ctx := context.Background()
	st := NewMemory[*models.Registration]()
	reg := newRegistration(t)
	require.NoError(t, st.Create(ctx, reg))

	_, version, err := st.Get(ctx, reg.ID)
	require.NoError(t, err)

	_, err = st.Update(ctx, reg.ID, version, func(r *models.Registration) error {
		r.Status = models.RegistrationReviewed
		return nil
	}, nil)
	require.NoError(t, err)

	// Same version again: the first writer won.
	_, err = st.Update(ctx, reg.ID, version, func(r *models.Registration) error {
		r.Status = models.RegistrationRejected
		return nil
	}, nil)
	assert.True(t, errors.Is(err, sentinel.ErrStale))

	got, _, err := st.Get(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationReviewed, got.Status)
}

func TestUpdateCommitFailureLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	st := NewMemory[*models.Registration]()
	reg := newRegistration(t)
	require.NoError(t, st.Create(ctx, reg))

	boom := errors.New("ledger down")
	_, err := st.Update(ctx, reg.ID, 1, func(r *models.Registration) error {
		r.Status = models.RegistrationReviewed
		return nil
	}, func(*models.Registration) error { return boom })
	require.ErrorIs(t, err, boom)

	got, version, err := st.Get(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationNew, got.Status)
	assert.Equal(t, uint64(1), version)
}

func TestConcurrentUpdatesExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	st := NewMemory[*models.Registration]()
	reg := newRegistration(t)
	require.NoError(t, st.Create(ctx, reg))

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = st.Update(ctx, reg.ID, 1, func(r *models.Registration) error {
				r.Status = models.RegistrationReviewed
				return nil
			}, nil)
		}(i)
	}
	wg.Wait()

	var wins, stales int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, sentinel.ErrStale):
			stales++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, writers-1, stales)
}

func TestUpdateUnknownID(t *testing.T) {
	ctx := context.Background()
	st := NewMemory[*models.Registration]()
	_, err := st.Update(ctx, "REG-missing", 1, func(*models.Registration) error { return nil }, nil)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestListSnapshots(t *testing.T) {
	ctx := context.Background()
	st := NewMemory[*models.Registration]()
	for i := 0; i < 3; i++ {
		require.NoError(t, st.Create(ctx, newRegistration(t)))
	}
	items, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}
