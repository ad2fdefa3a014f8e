package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database. The file DSN with an
// immediate txlock and a generous busy timeout makes concurrent
// transactions queue instead of failing, which the capacity tests rely
// on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	db, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=10000&_txlock=immediate"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.UserWallet{},
		&models.LedgerTransaction{},
		&models.LedgerArchiveMarker{},
		&models.MatchSession{},
		&models.MatchParticipant{},
		&models.MatchInvitation{},
		&models.RatingRecord{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *LedgerService, *SessionService, *InvitationService) {
	t.Helper()
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	sessions := NewSessionService(db, ledger)
	invitations := NewInvitationService(db)
	return db, ledger, sessions, invitations
}

// seedWallet creates a wallet with the given balances and returns its
// external user ID.
func seedWallet(t *testing.T, db *gorm.DB, username string, gender models.Gender, points, feathers int64) string {
	t.Helper()
	wallet := models.UserWallet{
		ID:       uuid.NewString(),
		UserID:   uuid.NewString(),
		Username: username,
		Gender:   gender,
		Points:   points,
		Feathers: feathers,
	}
	if err := db.Create(&wallet).Error; err != nil {
		t.Fatalf("failed to seed wallet %s: %v", username, err)
	}
	return wallet.UserID
}

func seedVipWallet(t *testing.T, db *gorm.DB, username string, gender models.Gender, points, feathers int64) string {
	t.Helper()
	userID := seedWallet(t, db, username, gender, points, feathers)
	until := time.Now().Add(24 * time.Hour)
	if err := db.Model(&models.UserWallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"is_vip": true, "vip_until": until}).Error; err != nil {
		t.Fatalf("failed to mark wallet VIP: %v", err)
	}
	return userID
}

func walletBalances(t *testing.T, db *gorm.DB, userID string) (int64, int64) {
	t.Helper()
	var wallet models.UserWallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		t.Fatalf("failed to load wallet %s: %v", userID, err)
	}
	return wallet.Points, wallet.Feathers
}

// totalBalance sums every wallet's balance in one currency, for
// conservation checks.
func totalBalance(t *testing.T, db *gorm.DB, currency models.CurrencyType) int64 {
	t.Helper()
	col := "points"
	if currency == models.CurrencyFeathers {
		col = "feathers"
	}
	var total int64
	if err := db.Model(&models.UserWallet{}).Select("COALESCE(SUM(" + col + "), 0)").Scan(&total).Error; err != nil {
		t.Fatalf("failed to sum %s balances: %v", col, err)
	}
	return total
}

func journalCount(t *testing.T, db *gorm.DB, userID string, kind models.TransactionKind) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.LedgerTransaction{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count journal rows: %v", err)
	}
	return count
}
