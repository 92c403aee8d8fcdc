package models

import "time"

// Leaderboard is a named score board, optionally tied to an external resource.
type Leaderboard struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	ResourceID  string    `gorm:"index;type:varchar(36)" json:"resource_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LeaderboardScore is one address's score on a leaderboard. Each address has
// at most one row per board; pushes upsert in place.
type LeaderboardScore struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	LeaderboardID string    `gorm:"not null;type:varchar(36);uniqueIndex:uq_leaderboard_scores_board_address" json:"leaderboard_id"`
	Address       string    `gorm:"not null;index;uniqueIndex:uq_leaderboard_scores_board_address" json:"address"`
	Score         int64     `gorm:"not null" json:"score"`
	PointsData    JSON      `gorm:"type:text" json:"points_data,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Leaderboard Leaderboard `gorm:"foreignKey:LeaderboardID;constraint:OnDelete:CASCADE" json:"-"`
}
