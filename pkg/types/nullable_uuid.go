package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NullableUUID is a PATCH field with three states: absent (Valid false), explicit null
// (Valid true, Value nil) and a concrete id.
type NullableUUID struct {
	Valid bool
	Value *uuid.UUID
}

// SetUUID builds a present, non-null value.
func SetUUID(id uuid.UUID) NullableUUID {
	return NullableUUID{Valid: true, Value: &id}
}

func (n *NullableUUID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	n.Valid = true
	n.Value = nil
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("uuid must be a string or null: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid uuid %q: %w", raw, err)
	}
	n.Value = &id
	return nil
}

func (n NullableUUID) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value.String())
}

// Apply returns the value to persist: current when the field was absent,
// otherwise the submitted id or nil to clear it.
func (n NullableUUID) Apply(current *uuid.UUID) *uuid.UUID {
	if !n.Valid {
		return current
	}
	if n.Value == nil {
		return nil
	}
	id := *n.Value
	return &id
}
