package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// ItemStatus is the auction outcome state of an item.
type ItemStatus string

const (
	// ItemForSale marks an item whose auction is still open.
	ItemForSale ItemStatus = "FOR_SALE"
	// ItemSold marks an item resolved with a winning bid.
	ItemSold ItemStatus = "SOLD"
	// ItemReserveNotMet marks an item whose auction ended without bids.
	ItemReserveNotMet ItemStatus = "RESERVE_NOT_MET"
)

// Item represents an auctioned good stored in the relational database.
type Item struct {
	bun.BaseModel `bun:"table:items"`

	ID        string     `bun:",pk"`
	Name      string     `bun:"name"`
	Price     int64      `bun:"price"`
	Status    ItemStatus `bun:"status"`
	OwnerID   string     `bun:"owner_id"`
	BuyerID   string     `bun:"buyer_id,nullzero"`
	Image     string     `bun:"image,nullzero"`
	EndTime   time.Time  `bun:"end_time"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	Deleted   bool       `bun:"deleted"`
	DeletedAt time.Time  `bun:"deleted_at,nullzero"`
}

// Expired reports whether the item's auction window has closed.
func (i *Item) Expired(now time.Time) bool {
	return !now.Before(i.EndTime)
}

// Biddable reports whether the item can still accept bids.
func (i *Item) Biddable(now time.Time) bool {
	return !i.Deleted && i.Status == ItemForSale && now.Before(i.EndTime)
}
