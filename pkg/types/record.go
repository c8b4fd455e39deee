package types

import (
	"encoding/json"
	"time"
)

// Record is the flat JSON-serializable shape stored in a collection. Every
// record must carry a unique "id" field; callers writing partial updates
// include only the fields they own, relying on the facade's shallow merge.
type Record map[string]interface{}

// ID returns the record's identity field, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// ChangeEvent announces that a collection changed. Delivery is at-least-once
// with no ordering guarantee; subscribers re-read the whole collection.
type ChangeEvent struct {
	Collection string
	At         time.Time
}

// ToRecord converts a typed value to its stored record shape through its
// JSON encoding.
func ToRecord(v interface{}) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// FromRecord decodes a stored record into the typed value pointed to by v.
func FromRecord(rec Record, v interface{}) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Clone returns a deep copy of the record via its JSON encoding, so callers
// can mutate the copy without aliasing stored state.
func (r Record) Clone() Record {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	var out Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// NowISO returns the current instant in RFC 3339 form, the format used for
// audit timestamps (created_at, updated_at, triage_at, attended_at).
func NowISO() string {
	return time.Now().Format(time.RFC3339)
}
