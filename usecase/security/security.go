// Package security maintains the short-lived admin access code: a 5-digit
// code stored under its own substrate key and regenerated on a fixed period.
package security

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/substrate"
)

// DefaultPeriod matches the original 5-minute rotation.
const DefaultPeriod = 5 * time.Minute

// Config controls the code lifecycle.
type Config struct {
	// Key is the substrate key the code lives under.
	Key string
	// Period is how long a code stays valid before rotation.
	Period time.Duration
}

// Code is the currently valid access code.
type Code struct {
	Code        string `json:"code"`
	IssuedAt    int64  `json:"issuedAt"`
	SecondsLeft int    `json:"secondsLeft"`
}

// UseCase owns the access-code substrate key. Nothing else writes it.
type UseCase struct {
	sub    substrate.Substrate
	logger *zap.Logger
	key    string
	period time.Duration
	clock  func() time.Time
	digits func() string
}

// New builds the access-code use case.
func New(sub substrate.Substrate, logger *zap.Logger, cfg Config) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := cfg.Key
	if key == "" {
		key = "adminCode"
	}
	period := cfg.Period
	if period <= 0 {
		period = DefaultPeriod
	}
	return &UseCase{
		sub:    sub,
		logger: logger,
		key:    key,
		period: period,
		clock:  time.Now,
		digits: randomCode,
	}
}

// Period returns the rotation period, for scheduling.
func (uc *UseCase) Period() time.Duration {
	return uc.period
}

// Current returns the valid code, rotating first if the stored one is absent,
// unreadable or expired.
func (uc *UseCase) Current(ctx context.Context) (Code, error) {
	raw, ok, err := uc.sub.Get(ctx, uc.key)
	if err != nil {
		return Code{}, err
	}
	if ok {
		var code Code
		if err := json.Unmarshal([]byte(raw), &code); err == nil {
			left := uc.secondsLeft(code)
			if left > 0 {
				code.SecondsLeft = left
				return code, nil
			}
		}
	}
	return uc.Rotate(ctx)
}

// Rotate issues a fresh code and persists it.
func (uc *UseCase) Rotate(ctx context.Context) (Code, error) {
	code := Code{
		Code:     uc.digits(),
		IssuedAt: uc.clock().UnixMilli(),
	}
	raw, err := json.Marshal(code)
	if err != nil {
		return Code{}, err
	}
	if err := uc.sub.Set(ctx, uc.key, string(raw)); err != nil {
		return Code{}, err
	}
	code.SecondsLeft = int(uc.period.Seconds())
	uc.logger.Info("admin access code rotated")
	return code, nil
}

// Verify reports whether the presented code matches the current one.
func (uc *UseCase) Verify(ctx context.Context, presented string) error {
	current, err := uc.Current(ctx)
	if err != nil {
		return err
	}
	if presented != current.Code {
		return domain.ErrUnauthorized
	}
	return nil
}

func (uc *UseCase) secondsLeft(code Code) int {
	expires := time.UnixMilli(code.IssuedAt).Add(uc.period)
	left := expires.Sub(uc.clock())
	if left <= 0 {
		return 0
	}
	return int(left.Seconds())
}

func randomCode() string {
	return fmt.Sprintf("%05d", 10000+rand.IntN(90000))
}
