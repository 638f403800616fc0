package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/backend/domain"
)

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, ok, err := s.Get(ctx, "contacts")
	require.NoError(t, err)
	assert.False(t, ok, "absent key reports not found, not an error")

	require.NoError(t, s.Set(ctx, "contacts", `{"records":[]}`))

	v, ok, err := s.Get(ctx, "contacts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"records":[]}`, v)

	require.NoError(t, s.Delete(ctx, "contacts"))
	_, ok, err = s.Get(ctx, "contacts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteAbsentKeyIsNoop(t *testing.T) {
	s := New()
	assert.NoError(t, s.Delete(context.Background(), "nothing"))
}

func TestCapacityQuota(t *testing.T) {
	ctx := context.Background()
	s := New(WithCapacity(10))

	require.NoError(t, s.Set(ctx, "a", "12345"))

	err := s.Set(ctx, "b", "123456789")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)

	// The failed write must not clobber existing data.
	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "12345", v)

	// Overwriting a key counts only the new value against the capacity.
	require.NoError(t, s.Set(ctx, "a", "1234567890"))
}
