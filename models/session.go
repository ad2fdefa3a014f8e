package models

import (
	"time"
)

// MatchSession is a scheduled badminton match with an entry-fee/bet
// economy attached. Status transitions happen only through the session
// service; fees and result are frozen once the session is terminal.
type MatchSession struct {
	ID        string        `gorm:"primaryKey;type:uuid" json:"id"`
	MatchType MatchType     `gorm:"type:varchar(2);not null;index" json:"match_type"`
	Status    SessionStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	CreatorID string        `gorm:"type:uuid;not null;index" json:"creator_id"`

	EntryFeePoints   int64 `gorm:"not null;default:0" json:"entry_fee_points"`
	EntryFeeFeathers int64 `gorm:"not null;default:0" json:"entry_fee_feathers"`

	BetCurrencyType    CurrencyType `gorm:"type:varchar(16);not null;default:'NONE'" json:"bet_currency_type"`
	BetAmountPerPlayer int64        `gorm:"not null;default:0" json:"bet_amount_per_player"`

	CreationCostPoints   int64 `gorm:"not null;default:0" json:"creation_cost_points"`
	CreationCostFeathers int64 `gorm:"not null;default:0" json:"creation_cost_feathers"`

	Password string `gorm:"type:varchar(6)" json:"-"` // optional 6-digit code, never serialized
	IsRanked bool   `gorm:"default:true" json:"is_ranked"`

	// PlayerCount is the capacity counter; joins reserve a slot with a
	// conditional increment so concurrent joins can never exceed the
	// discipline arity.
	PlayerCount int `gorm:"not null;default:0" json:"player_count"`

	Result     *MatchResult `gorm:"type:varchar(16)" json:"result,omitempty"`
	Team1Score *int         `json:"team1_score,omitempty"`
	Team2Score *int         `json:"team2_score,omitempty"`

	// RefundedAt is the idempotency marker: a session's escrow is paid
	// back at most once no matter how often cancel/refund is retried.
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Participants []MatchParticipant `json:"participants,omitempty" gorm:"foreignKey:MatchSessionID"`

	// Calculated, not stored
	MaxPlayers int `json:"max_players" gorm:"-"`
}

func (s *MatchSession) HasPassword() bool { return s.Password != "" }

// MatchParticipant records one player's seat in a session together with
// the amounts actually charged — refunds always pay back these recorded
// amounts, not the session defaults.
type MatchParticipant struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchSessionID string `gorm:"type:uuid;not null;index:idx_session_user,unique" json:"match_session_id"`
	UserID         string `gorm:"type:uuid;not null;index:idx_session_user,unique" json:"user_id"`
	Team           int    `gorm:"not null" json:"team"` // 1 or 2

	EntryFeePointsPaid   int64        `gorm:"not null;default:0" json:"entry_fee_points_paid"`
	EntryFeeFeathersPaid int64        `gorm:"not null;default:0" json:"entry_fee_feathers_paid"`
	BetAmount            int64        `gorm:"not null;default:0" json:"bet_amount"`
	BetCurrencyType      CurrencyType `gorm:"type:varchar(16);not null;default:'NONE'" json:"bet_currency_type"`

	// Rating fields stay zero until the session completes.
	RatingBefore int `gorm:"not null;default:0" json:"rating_before"`
	RatingAfter  int `gorm:"not null;default:0" json:"rating_after"`
	RatingChange int `gorm:"not null;default:0" json:"rating_change"`

	PointsEarned int64 `gorm:"not null;default:0" json:"points_earned"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
