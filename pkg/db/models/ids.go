package models

import "github.com/google/uuid"

// ensureID assigns a random identifier when the row has none yet.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
