package model

import "time"

// StoredCredential persists one role-scoped login session. A row is only ever
// written with both token and email present; a row missing either is treated
// as absent and removed on read.
type StoredCredential struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Role      string    `gorm:"uniqueIndex;not null;size:16"`
	Token     string    `gorm:"not null;size:1024"`
	Email     string    `gorm:"not null;size:320"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Place is a venue for which review tokens and bonus programs are scoped.
type Place struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// UserStats aggregates a customer's review activity and loyalty points.
type UserStats struct {
	TotalReviews  int64   `json:"total_reviews"`
	AverageRating float64 `json:"avg_rating"`
	Points        int64   `json:"points"`
	ActiveBonuses int64   `json:"bonuses_active"`
}

// Bonus is a redeemable reward in its canonical shape. Legacy rows coming from
// older API deployments are normalized into this shape at the client boundary.
type Bonus struct {
	RewardType     string `json:"reward_type"`
	RequiredPoints int64  `json:"required_points"`
	QRToken        string `json:"qr_token"`
	Used           bool   `json:"is_used"`
}

// TokenBatch is the normalized result of an admin token generation call.
type TokenBatch struct {
	Tokens []string `json:"tokens"`
}

// ReviewSubmission carries one token-gated review to the API.
type ReviewSubmission struct {
	Token   string `json:"token"`
	PlaceID string `json:"place_id"`
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}
