package models

import "time"

// Base carries the identity and timestamps every stored record has.
// Embedding it makes a pointer to the record satisfy store.Record.
type Base struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) GetID() int              { return b.ID }
func (b *Base) SetID(id int)            { b.ID = id }
func (b *Base) GetCreatedAt() time.Time { return b.CreatedAt }

func (b *Base) SetTimestamps(createdAt, updatedAt time.Time) {
	b.CreatedAt = createdAt
	b.UpdatedAt = updatedAt
}
