package models

import (
	"time"
)

// DefaultRating is the starting rating of every discipline track.
const DefaultRating = 1500

// RatingRecord is one user's rating track in one discipline. The five
// disciplines never share state. Written only by the session service at
// completion.
type RatingRecord struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;index:idx_user_discipline,unique" json:"user_id"`
	Discipline MatchType `gorm:"type:varchar(2);not null;index:idx_user_discipline,unique" json:"discipline"`

	Rating      int `gorm:"not null;default:1500" json:"rating"`
	PeakRating  int `gorm:"not null;default:1500" json:"peak_rating"`
	GamesPlayed int `gorm:"not null;default:0" json:"games_played"`
	Wins        int `gorm:"not null;default:0" json:"wins"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
