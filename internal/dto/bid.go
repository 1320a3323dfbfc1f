package dto

import "time"

// BidResponse represents a recorded bid as exposed via transport layers.
type BidResponse struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	BidderID   string    `json:"bidder_id"`
	BidderName string    `json:"bidder_name,omitempty"`
	Amount     int64     `json:"amount"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
