package dto

import "time"

// ItemResponse represents an item as exposed via transport layers.
type ItemResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Price     int64      `json:"price"`
	Status    string     `json:"status"`
	OwnerID   string     `json:"owner_id"`
	BuyerID   string     `json:"buyer_id,omitempty"`
	Image     string     `json:"image,omitempty"`
	EndTime   time.Time  `json:"end_time"`
	CreatedAt time.Time  `json:"created_at"`
	Deleted   bool       `json:"deleted,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ItemDetailResponse augments an item with its current highest bid.
type ItemDetailResponse struct {
	ItemResponse
	HighestBid *BidResponse `json:"highest_bid,omitempty"`
}
