package models

import (
	"time"
)

// MatchInvitation reserves a slot offer on a PENDING session. Only the
// inviter may cancel, only the invitee may accept or decline, and
// accepting does not by itself join the session or move currency.
type MatchInvitation struct {
	ID             string           `gorm:"primaryKey;type:uuid" json:"id"`
	MatchSessionID string           `gorm:"type:uuid;not null;index" json:"match_session_id"`
	InviterID      string           `gorm:"type:uuid;not null;index" json:"inviter_id"`
	InviteeID      string           `gorm:"type:uuid;not null;index" json:"invitee_id"`
	Team           int              `gorm:"not null" json:"team"`
	Message        string           `gorm:"type:text" json:"message,omitempty"`
	Status         InvitationStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	ExpiresAt      time.Time        `gorm:"not null" json:"expires_at"`
	CreatedAt      time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// Expired is checked lazily at respond time; the sweeper only tidies up.
func (i *MatchInvitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
