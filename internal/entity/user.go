package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// User holds the display identity attached to bid events.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:",pk"`
	Name      string    `bun:"name"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
