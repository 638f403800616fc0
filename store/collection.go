// Package store implements persisted record collections: typed CRUD over a
// named substrate key with monotonic id assignment, full-blob persistence and
// synchronous change events.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/notify"
	"github.com/crmkit/backend/substrate"
)

// schemaVersion is stamped into every persisted blob so the layout can evolve
// without silently breaking on field renames.
const schemaVersion = 1

type blob struct {
	SchemaVersion int             `json:"schemaVersion"`
	Records       []domain.Record `json:"records"`
}

// Config describes one collection.
type Config struct {
	// Name is the substrate key and the event namespace.
	Name string
	// Seed is installed (and persisted) when the substrate key is absent on
	// first load.
	Seed []domain.Record
	// Validate runs against the full record on create and after every patch
	// merge. Nil means no validation.
	Validate Validator
	// MoneyFields are rounded to two decimal places on every write so money
	// arithmetic never accumulates float drift.
	MoneyFields []string
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Collection owns one substrate key and the in-memory cache behind it. Every
// mutation rewrites the complete record sequence; a failed substrate write
// rolls the cache back to its pre-mutation snapshot so memory and substrate
// never diverge. Mutations are serialized through one mutex per collection.
type Collection struct {
	name        string
	sub         substrate.Substrate
	notifier    *notify.Notifier
	logger      *zap.Logger
	validate    Validator
	moneyFields []string
	seed        []domain.Record
	clock       func() time.Time

	mu     sync.Mutex
	loaded bool
	items  []domain.Record
	nextID int64
}

// New creates a collection handle. The substrate key is read lazily on first
// access.
func New(sub substrate.Substrate, notifier *notify.Notifier, logger *zap.Logger, cfg Config) *Collection {
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Collection{
		name:        cfg.Name,
		sub:         sub,
		notifier:    notifier,
		logger:      logger.With(zap.String("collection", cfg.Name)),
		validate:    cfg.Validate,
		moneyFields: cfg.MoneyFields,
		seed:        cfg.Seed,
		clock:       clock,
		nextID:      1,
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Load reads the collection from the substrate. An absent key installs the
// seed (or an empty sequence) and persists it immediately; an unparseable
// value surfaces as a CORRUPT error and leaves the cache untouched so the
// caller can decide between ResetToSeed and failing hard.
func (c *Collection) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

func (c *Collection) loadLocked(ctx context.Context) error {
	raw, ok, err := c.sub.Get(ctx, c.name)
	if err != nil {
		return err
	}

	if !ok {
		c.items = cloneRecords(c.seed)
		c.nextID = maxID(c.items) + 1
		if err := c.persistLocked(ctx); err != nil {
			c.items = nil
			c.nextID = 1
			return err
		}
		c.loaded = true
		c.logger.Info("collection initialized", zap.Int("seed_records", len(c.items)))
		return nil
	}

	var b blob
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return domain.WrapError(domain.ErrCodeCorrupt, fmt.Sprintf("collection %s", c.name), err)
	}
	c.items = b.Records
	c.nextID = maxID(c.items) + 1
	c.loaded = true
	return nil
}

// ResetToSeed discards whatever the substrate holds and reinstalls the seed.
// The fallback for callers that choose recovery over surfacing a corrupt blob.
func (c *Collection) ResetToSeed(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevItems, prevNext, prevLoaded := c.items, c.nextID, c.loaded
	c.items = cloneRecords(c.seed)
	c.nextID = maxID(c.items) + 1
	c.loaded = true
	if err := c.persistLocked(ctx); err != nil {
		c.items, c.nextID, c.loaded = prevItems, prevNext, prevLoaded
		return err
	}
	c.logger.Warn("collection reset to seed")
	return nil
}

// List returns the records in insertion order, optionally filtered. The
// returned slice is a copy; callers cannot corrupt the cache through it.
func (c *Collection) List(ctx context.Context, filter func(domain.Record) bool) ([]domain.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	out := make([]domain.Record, 0, len(c.items))
	for _, r := range c.items {
		if filter == nil || filter(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Get returns the record with the given id.
func (c *Collection) Get(ctx context.Context, id int64) (domain.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoadedLocked(ctx); err != nil {
		return domain.Record{}, err
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		return domain.Record{}, domain.NotFound(c.name, id)
	}
	return c.items[idx].Clone(), nil
}

// Len returns the number of records, for monitoring.
func (c *Collection) Len(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoadedLocked(ctx); err != nil {
		return 0, err
	}
	return len(c.items), nil
}

// Create assigns the next id and the creation timestamp, appends the record,
// persists the full sequence and publishes a created event. Reserved id and
// createdAt keys in the payload are ignored; a status key becomes the
// workflow status.
func (c *Collection) Create(ctx context.Context, payload domain.Patch) (domain.Record, error) {
	c.mu.Lock()
	rec, err := c.createLocked(ctx, payload)
	c.mu.Unlock()
	if err != nil {
		return domain.Record{}, err
	}
	c.publish(domain.EventCreated, rec)
	return rec, nil
}

func (c *Collection) createLocked(ctx context.Context, payload domain.Patch) (domain.Record, error) {
	if err := c.ensureLoadedLocked(ctx); err != nil {
		return domain.Record{}, err
	}

	rec := domain.Record{
		ID:        c.nextID,
		CreatedAt: c.clock().UnixMilli(),
		Fields:    make(map[string]any, len(payload)),
	}
	for k, v := range payload {
		switch k {
		case domain.FieldID, domain.FieldCreatedAt:
			// store-owned
		case domain.FieldStatus:
			if s, ok := v.(string); ok {
				rec.Status = s
			}
		default:
			rec.Fields[k] = v
		}
	}
	c.roundMoney(&rec)

	if c.validate != nil {
		if err := c.validate(rec); err != nil {
			return domain.Record{}, err
		}
	}

	prevNext := c.nextID
	c.items = append(c.items, rec)
	c.nextID++
	if err := c.persistLocked(ctx); err != nil {
		c.items = c.items[:len(c.items)-1]
		c.nextID = prevNext
		return domain.Record{}, err
	}
	return rec.Clone(), nil
}

// Update shallow-merges the patch into the record, persists and publishes an
// updated event. The patch cannot touch id or createdAt.
func (c *Collection) Update(ctx context.Context, id int64, patch domain.Patch) (domain.Record, error) {
	c.mu.Lock()
	rec, err := c.updateLocked(ctx, id, patch)
	c.mu.Unlock()
	if err != nil {
		return domain.Record{}, err
	}
	c.publish(domain.EventUpdated, rec)
	return rec, nil
}

func (c *Collection) updateLocked(ctx context.Context, id int64, patch domain.Patch) (domain.Record, error) {
	if err := c.ensureLoadedLocked(ctx); err != nil {
		return domain.Record{}, err
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		return domain.Record{}, domain.NotFound(c.name, id)
	}

	prev := c.items[idx]
	merged := mergePatch(prev, patch)
	c.roundMoney(&merged)

	if c.validate != nil {
		if err := c.validate(merged); err != nil {
			return domain.Record{}, err
		}
	}

	c.items[idx] = merged
	if err := c.persistLocked(ctx); err != nil {
		c.items[idx] = prev
		return domain.Record{}, err
	}
	return merged.Clone(), nil
}

// UpdateMany applies several patches and persists the sequence once, so the
// whole batch lands in the substrate or none of it does. Events are published
// per record in ascending id order.
func (c *Collection) UpdateMany(ctx context.Context, patches map[int64]domain.Patch) ([]domain.Record, error) {
	c.mu.Lock()
	updated, err := c.updateManyLocked(ctx, patches)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, rec := range updated {
		c.publish(domain.EventUpdated, rec)
	}
	return updated, nil
}

func (c *Collection) updateManyLocked(ctx context.Context, patches map[int64]domain.Patch) ([]domain.Record, error) {
	if err := c.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(patches))
	for id := range patches {
		if c.indexLocked(id) < 0 {
			return nil, domain.NotFound(c.name, id)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	prev := make(map[int]domain.Record, len(ids))
	updated := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		idx := c.indexLocked(id)
		prev[idx] = c.items[idx]
		merged := mergePatch(c.items[idx], patches[id])
		c.roundMoney(&merged)
		if c.validate != nil {
			if err := c.validate(merged); err != nil {
				c.restoreLocked(prev)
				return nil, err
			}
		}
		c.items[idx] = merged
		updated = append(updated, merged.Clone())
	}

	if err := c.persistLocked(ctx); err != nil {
		c.restoreLocked(prev)
		return nil, err
	}
	return updated, nil
}

// Remove deletes the record from the sequence entirely. Its id is never
// assigned again.
func (c *Collection) Remove(ctx context.Context, id int64) error {
	c.mu.Lock()
	rec, err := c.removeLocked(ctx, id)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.publish(domain.EventDeleted, rec)
	return nil
}

func (c *Collection) removeLocked(ctx context.Context, id int64) (domain.Record, error) {
	if err := c.ensureLoadedLocked(ctx); err != nil {
		return domain.Record{}, err
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		return domain.Record{}, domain.NotFound(c.name, id)
	}

	removed := c.items[idx]
	prevItems := c.items
	c.items = append(append([]domain.Record{}, c.items[:idx]...), c.items[idx+1:]...)
	if err := c.persistLocked(ctx); err != nil {
		c.items = prevItems
		return domain.Record{}, err
	}
	return removed, nil
}

// Subscribe registers a change handler for this collection's events.
func (c *Collection) Subscribe(fn func(domain.Event)) func() {
	if c.notifier == nil {
		return func() {}
	}
	name := c.name
	return c.notifier.Subscribe(func(evt domain.Event) {
		if evt.Collection == name {
			fn(evt)
		}
	})
}

func (c *Collection) ensureLoadedLocked(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	return c.loadLocked(ctx)
}

func (c *Collection) persistLocked(ctx context.Context) error {
	records := c.items
	if records == nil {
		records = []domain.Record{}
	}
	raw, err := json.Marshal(blob{SchemaVersion: schemaVersion, Records: records})
	if err != nil {
		return err
	}
	return c.sub.Set(ctx, c.name, string(raw))
}

func (c *Collection) indexLocked(id int64) int {
	for i, r := range c.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection) restoreLocked(prev map[int]domain.Record) {
	for idx, rec := range prev {
		c.items[idx] = rec
	}
}

func (c *Collection) roundMoney(rec *domain.Record) {
	for _, field := range c.moneyFields {
		if v, ok := rec.Fields[field]; ok && v != nil {
			rec.Fields[field], _ = domain.ToMoney(v).Float64()
		}
	}
}

func (c *Collection) publish(typ domain.EventType, rec domain.Record) {
	if c.notifier == nil {
		return
	}
	c.notifier.Publish(domain.Event{
		Collection: c.name,
		Type:       typ,
		Record:     rec,
	})
}

func mergePatch(base domain.Record, patch domain.Patch) domain.Record {
	merged := base.Clone()
	for k, v := range patch {
		switch k {
		case domain.FieldID, domain.FieldCreatedAt:
			// immutable
		case domain.FieldStatus:
			if s, ok := v.(string); ok {
				merged.Status = s
			}
		default:
			merged.Fields[k] = v
		}
	}
	return merged
}

func cloneRecords(in []domain.Record) []domain.Record {
	out := make([]domain.Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

func maxID(items []domain.Record) int64 {
	var max int64
	for _, r := range items {
		if r.ID > max {
			max = r.ID
		}
	}
	return max
}
