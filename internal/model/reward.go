package model

import "time"

// Reward is a catalog entry that can be exchanged for points.
type Reward struct {
	CreatedAt      time.Time `json:"created_at"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"image_url,omitempty"`
	ID             int64     `json:"id"`
	PointsRequired int       `json:"points_required"`
}

// RewardRedemption records a completed exchange. PointCost is the price
// charged at redemption time, independent of later catalog changes.
type RewardRedemption struct {
	RedeemedAt time.Time `json:"redeemed_at"`
	Code       string    `json:"redemption_code"`
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	RewardID   int64     `json:"reward_id"`
	PointCost  int       `json:"points_redeemed"`
}

// RedemptionRecord is a redemption enriched for display.
type RedemptionRecord struct {
	RewardName        string `json:"reward_name"`
	RewardDescription string `json:"reward_description"`
	PickupMessage     string `json:"pickup_message"`
	RewardRedemption
	UserPoints int `json:"user_points"`
}
