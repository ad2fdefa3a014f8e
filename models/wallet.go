package models

import (
	"time"

	"gorm.io/gorm"
)

// UserWallet is the local mirror of an account-store user plus the two
// currency balances owned by this service. Identity fields (username,
// gender, region, VIP window) are written by the account sync worker;
// balances are written exclusively by the ledger.
type UserWallet struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"` // External user ID
	Username string `gorm:"index;not null" json:"username"`
	Gender   Gender `gorm:"type:varchar(1)" json:"gender"`
	Region   string `gorm:"index" json:"region,omitempty"` // slug form, e.g. "seoul-gangnam"

	Points   int64 `gorm:"not null;default:0;check:points >= 0" json:"points"`
	Feathers int64 `gorm:"not null;default:0;check:feathers >= 0" json:"feathers"`

	IsVip    bool       `gorm:"default:false" json:"is_vip"`
	VipUntil *time.Time `json:"vip_until,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// VipActive treats an expired vip_until as non-VIP.
func (w *UserWallet) VipActive(now time.Time) bool {
	if !w.IsVip {
		return false
	}
	if w.VipUntil != nil && w.VipUntil.Before(now) {
		return false
	}
	return true
}

// Balance returns the balance of the requested currency.
func (w *UserWallet) Balance(currency CurrencyType) int64 {
	if currency == CurrencyFeathers {
		return w.Feathers
	}
	return w.Points
}

// LedgerTransaction is the append-only journal of every balance
// mutation. Rows are write-once; refunds and rewards are new rows, not
// updates.
type LedgerTransaction struct {
	ID             string          `gorm:"primaryKey;type:uuid" json:"id"`
	MatchSessionID *string         `gorm:"type:uuid;index" json:"match_session_id,omitempty"`
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount         int64           `gorm:"not null" json:"amount"` // always positive; direction implied by kind
	Currency       CurrencyType    `gorm:"type:varchar(16);not null" json:"currency"`
	Kind           TransactionKind `gorm:"type:varchar(16);not null;index" json:"kind"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime;index"`
}

// LedgerArchiveMarker records how far the archive worker has exported
// the journal. One row per uploaded batch; ArchivedThrough and LastID
// form the keyset cursor, so rows sharing a timestamp across a batch
// boundary are still picked up.
type LedgerArchiveMarker struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ArchivedThrough time.Time `gorm:"not null;index" json:"archived_through"`
	LastID          string    `gorm:"type:uuid;not null" json:"last_id"`
	ObjectKey       string    `gorm:"not null" json:"object_key"`
	RowCount        int       `gorm:"not null" json:"row_count"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// AccountSyncMarker records how far the account sync worker has pulled
// remote profile changes. The cursor lives here, not on user_wallets,
// because ledger balance writes bump a wallet's updated_at and would
// otherwise drag the cursor past in-flight remote identity changes.
type AccountSyncMarker struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SyncedThrough time.Time `gorm:"not null;index" json:"synced_through"`
	ProfileCount  int       `gorm:"not null" json:"profile_count"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
