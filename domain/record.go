package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Reserved field names the store manages on behalf of every record.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldStatus    = "status"
)

// Statuses shared by the workflow-driven collections.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
	StatusPaid     = "Paid"
	StatusOverdue  = "Overdue"
	StatusSuccess  = "Success"
)

// Record wraps an application-defined payload with the envelope the store owns:
// a collection-unique id, an immutable creation timestamp (milliseconds since
// epoch) and an optional workflow status. The payload itself is opaque to the
// store. On the wire a record is a single flat JSON object, so persisted
// collections stay plain field-value sequences.
type Record struct {
	ID        int64
	CreatedAt int64
	Status    string
	Fields    map[string]any
}

// Patch is a shallow field merge applied by Collection.Update. The reserved
// id and createdAt keys are ignored; a status key moves the workflow status.
type Patch map[string]any

// Clone returns a copy whose field map can be mutated without touching the
// original. Nested values are shared; patches merge shallowly so one level
// of copying is what rollback snapshots need.
func (r Record) Clone() Record {
	out := r
	out.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// Field returns a payload field by name.
func (r Record) Field(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// StringField returns a payload field coerced to string, or "".
func (r Record) StringField(name string) string {
	if v, ok := r.Fields[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// MoneyField reads a numeric payload field as a cent-rounded decimal. Money
// arithmetic always rounds to two decimal places at the point of computation
// so repeated transfers cannot accumulate float drift.
func (r Record) MoneyField(name string) decimal.Decimal {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return decimal.Zero
	}
	return ToMoney(v)
}

// ToMoney converts an arbitrary JSON-decoded numeric into a two-decimal-place
// decimal. Unparseable values count as zero.
func ToMoney(v any) decimal.Decimal {
	switch n := v.(type) {
	case decimal.Decimal:
		return n.Round(2)
	case json.Number:
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d.Round(2)
		}
	case float64:
		return decimal.NewFromFloat(n).Round(2)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case string:
		if d, err := decimal.NewFromString(n); err == nil {
			return d.Round(2)
		}
	}
	return decimal.Zero
}

// MarshalJSON flattens the envelope and the payload into one object.
func (r Record) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		flat[k] = v
	}
	flat[FieldID] = r.ID
	flat[FieldCreatedAt] = r.CreatedAt
	if r.Status != "" {
		flat[FieldStatus] = r.Status
	} else {
		delete(flat, FieldStatus)
	}
	return json.Marshal(flat)
}

// UnmarshalJSON splits the flat object back into envelope and payload.
func (r *Record) UnmarshalJSON(data []byte) error {
	flat := make(map[string]any)
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	if v, ok := flat[FieldID]; ok {
		r.ID = toInt64(v)
		delete(flat, FieldID)
	}
	if v, ok := flat[FieldCreatedAt]; ok {
		r.CreatedAt = toInt64(v)
		delete(flat, FieldCreatedAt)
	}
	if v, ok := flat[FieldStatus]; ok {
		if s, ok := v.(string); ok {
			r.Status = s
		}
		delete(flat, FieldStatus)
	}
	r.Fields = flat
	return nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
