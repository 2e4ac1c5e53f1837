// Package ids generates the time-sortable identifiers every persisted
// entity uses, so natural id order approximates creation order.
package ids

import "github.com/google/uuid"

// New returns a UUIDv7 string. Falls back to a random UUID if the system
// clock source is unavailable, which keeps inserts working at the cost of
// sort order for those rows.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
