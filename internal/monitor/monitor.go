// Package monitor periodically probes the substrate with a write/read
// round-trip and tracks per-collection record counts for the health endpoint.
package monitor

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crmkit/backend/crm"
	"github.com/crmkit/backend/substrate"
)

// probeKey is reserved for health probes; no collection owns it.
const probeKey = "healthz:probe"

// Status is the last observed health snapshot.
type Status struct {
	Substrate   bool           `json:"substrate"`
	Collections map[string]int `json:"collections"`
	LastCheck   time.Time      `json:"last_check"`
}

type Monitor struct {
	sub      substrate.Substrate
	registry *crm.Registry

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(sub substrate.Substrate, registry *crm.Registry, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		sub:      sub,
		registry: registry,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Substrate
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	status := Status{
		Substrate: m.checkSubstrate(ctx),
		LastCheck: time.Now(),
	}
	if m.registry != nil {
		status.Collections = m.registry.Sizes(ctx)
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) checkSubstrate(ctx context.Context) bool {
	if m.sub == nil {
		return false
	}
	stamp := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := m.sub.Set(ctx, probeKey, stamp); err != nil {
		m.logger.Warn("substrate probe write failed", zap.Error(err))
		return false
	}
	value, ok, err := m.sub.Get(ctx, probeKey)
	if err != nil || !ok || value != stamp {
		m.logger.Warn("substrate probe read failed", zap.Error(err))
		return false
	}
	return true
}
