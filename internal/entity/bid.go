package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Bid is an immutable offer recorded against an item. Bids are append-only;
// rows are never updated or deleted so the ledger doubles as an audit trail.
type Bid struct {
	bun.BaseModel `bun:"table:bids"`

	ID        string    `bun:",pk"`
	ItemID    string    `bun:"item_id"`
	BidderID  string    `bun:"bidder_id"`
	Amount    int64     `bun:"amount"`
	Message   string    `bun:"message,nullzero"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
