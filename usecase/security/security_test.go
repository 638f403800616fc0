package security

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/substrate/memory"
)

func TestCurrentIssuesFiveDigitCode(t *testing.T) {
	uc := New(memory.New(), nil, Config{})

	code, err := uc.Current(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{5}$`), code.Code)
	assert.Equal(t, int(DefaultPeriod.Seconds()), code.SecondsLeft)
	assert.NotZero(t, code.IssuedAt)
}

func TestCurrentIsStableWithinPeriod(t *testing.T) {
	ctx := context.Background()
	uc := New(memory.New(), nil, Config{Period: time.Minute})

	first, err := uc.Current(ctx)
	require.NoError(t, err)
	second, err := uc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Code, second.Code)
}

func TestCurrentRotatesExpiredCode(t *testing.T) {
	ctx := context.Background()
	uc := New(memory.New(), nil, Config{Period: time.Minute})

	now := time.Now()
	uc.clock = func() time.Time { return now }

	first, err := uc.Current(ctx)
	require.NoError(t, err)

	uc.clock = func() time.Time { return now.Add(2 * time.Minute) }
	uc.digits = func() string { return "54321" }

	second, err := uc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "54321", second.Code)
	assert.NotEqual(t, first.IssuedAt, second.IssuedAt)
}

func TestSecondsLeftCountsDown(t *testing.T) {
	ctx := context.Background()
	uc := New(memory.New(), nil, Config{Period: time.Minute})

	now := time.Now()
	uc.clock = func() time.Time { return now }

	_, err := uc.Current(ctx)
	require.NoError(t, err)

	uc.clock = func() time.Time { return now.Add(45 * time.Second) }
	code, err := uc.Current(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 15, code.SecondsLeft, 1)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	uc := New(memory.New(), nil, Config{})
	uc.digits = func() string { return "11111" }

	_, err := uc.Rotate(ctx)
	require.NoError(t, err)

	assert.NoError(t, uc.Verify(ctx, "11111"))

	err = uc.Verify(ctx, "99999")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestCurrentRecoversFromUnreadableValue(t *testing.T) {
	ctx := context.Background()
	sub := memory.New()
	require.NoError(t, sub.Set(ctx, "adminCode", "garbage"))

	uc := New(sub, nil, Config{})
	code, err := uc.Current(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{5}$`, code.Code)
}
