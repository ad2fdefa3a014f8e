package services

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService is the only writer of wallet balances. Every mutation
// is a conditional UPDATE plus an append-only LedgerTransaction row in
// the same database transaction, so balances can never go negative and
// no mutation is silent.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// Leg is one currency movement inside a multi-leg debit.
type Leg struct {
	Currency models.CurrencyType
	Amount   int64
	Kind     models.TransactionKind
}

// RefundEntry reports one credited amount inside a session refund.
type RefundEntry struct {
	UserID   string              `json:"user_id"`
	Currency models.CurrencyType `json:"currency"`
	Amount   int64               `json:"amount"`
	Kind     models.TransactionKind `json:"kind"`
}

// RefundSummary is what Cancel/Delete report back to the caller.
type RefundSummary struct {
	SessionID       string        `json:"session_id"`
	AlreadyRefunded bool          `json:"already_refunded"`
	Refunds         []RefundEntry `json:"refunds"`
}

func balanceColumn(currency models.CurrencyType) string {
	if currency == models.CurrencyFeathers {
		return "feathers"
	}
	return "points"
}

// GetWallet loads a wallet by external user ID.
func (s *LedgerService) GetWallet(userID string) (*models.UserWallet, error) {
	var wallet models.UserWallet
	if err := s.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "wallet"}
		}
		return nil, err
	}
	return &wallet, nil
}

// Debit atomically decrements one balance, rejecting with
// InsufficientFundsError when the wallet cannot cover the amount.
func (s *LedgerService) Debit(userID string, currency models.CurrencyType, amount int64, kind models.TransactionKind, sessionID *string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.MultiDebitTx(tx, userID, sessionID, []Leg{{Currency: currency, Amount: amount, Kind: kind}})
	})
}

// Credit atomically increments one balance. It only fails when the
// wallet does not exist.
func (s *LedgerService) Credit(userID string, currency models.CurrencyType, amount int64, kind models.TransactionKind, sessionID *string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.CreditTx(tx, userID, sessionID, currency, amount, kind)
	})
}

// MultiDebit applies all legs or none of them.
func (s *LedgerService) MultiDebit(userID string, sessionID *string, legs []Leg) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.MultiDebitTx(tx, userID, sessionID, legs)
	})
}

// MultiDebitTx is the tx-scoped form, composable into a larger write
// (session create/join run ledger legs inside their own transaction).
// Legs sharing a currency are merged into a single conditional update,
// so a fee+bet pair in the same currency is checked against the balance
// once, as a sum.
func (s *LedgerService) MultiDebitTx(tx *gorm.DB, userID string, sessionID *string, legs []Leg) error {
	totals := map[models.CurrencyType]int64{}
	for _, leg := range legs {
		if leg.Amount < 0 {
			return validationf("negative debit amount %d", leg.Amount)
		}
		if leg.Amount == 0 {
			continue
		}
		if leg.Currency != models.CurrencyPoints && leg.Currency != models.CurrencyFeathers {
			return validationf("invalid debit currency %q", string(leg.Currency))
		}
		totals[leg.Currency] += leg.Amount
	}

	for currency, total := range totals {
		col := balanceColumn(currency)
		res := tx.Model(&models.UserWallet{}).
			Where("user_id = ? AND "+col+" >= ?", userID, total).
			Update(col, gorm.Expr(col+" - ?", total))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Either the wallet is missing or the balance is short.
			var wallet models.UserWallet
			if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &NotFoundError{Resource: "wallet"}
				}
				return err
			}
			return &InsufficientFundsError{
				Currency:  currency,
				Required:  total,
				Available: wallet.Balance(currency),
			}
		}
	}

	for _, leg := range legs {
		if leg.Amount == 0 {
			continue
		}
		entry := models.LedgerTransaction{
			ID:             uuid.NewString(),
			MatchSessionID: sessionID,
			UserID:         userID,
			Amount:         leg.Amount,
			Currency:       leg.Currency,
			Kind:           leg.Kind,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreditTx increments a balance and journals the credit.
func (s *LedgerService) CreditTx(tx *gorm.DB, userID string, sessionID *string, currency models.CurrencyType, amount int64, kind models.TransactionKind) error {
	if amount < 0 {
		return validationf("negative credit amount %d", amount)
	}
	if amount == 0 {
		return nil
	}
	col := balanceColumn(currency)
	res := tx.Model(&models.UserWallet{}).
		Where("user_id = ?", userID).
		Update(col, gorm.Expr(col+" + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Resource: "wallet"}
	}
	entry := models.LedgerTransaction{
		ID:             uuid.NewString(),
		MatchSessionID: sessionID,
		UserID:         userID,
		Amount:         amount,
		Currency:       currency,
		Kind:           kind,
	}
	return tx.Create(&entry).Error
}

// RefundSession pays back every participant's recorded entry fee and
// bet plus the creator's journaled creation cost. Idempotent: the
// refunded_at marker is claimed with a conditional update, so retries
// and concurrent cancels credit nobody twice.
func (s *LedgerService) RefundSession(sessionID string) (*RefundSummary, error) {
	var summary *RefundSummary
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		summary, err = s.RefundSessionTx(tx, sessionID)
		return err
	})
	return summary, err
}

// RefundSessionTx is the tx-scoped form used by cancel/delete.
func (s *LedgerService) RefundSessionTx(tx *gorm.DB, sessionID string) (*RefundSummary, error) {
	summary := &RefundSummary{SessionID: sessionID}

	res := tx.Model(&models.MatchSession{}).
		Where("id = ? AND refunded_at IS NULL", sessionID).
		Update("refunded_at", time.Now())
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var session models.MatchSession
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &NotFoundError{Resource: "session"}
			}
			return nil, err
		}
		summary.AlreadyRefunded = true
		return summary, nil
	}

	var session models.MatchSession
	if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, err
	}

	var participants []models.MatchParticipant
	if err := tx.Where("match_session_id = ?", sessionID).Find(&participants).Error; err != nil {
		return nil, err
	}

	credit := func(userID string, currency models.CurrencyType, amount int64) error {
		if amount <= 0 {
			return nil
		}
		if err := s.CreditTx(tx, userID, &sessionID, currency, amount, models.TxRefund); err != nil {
			return err
		}
		summary.Refunds = append(summary.Refunds, RefundEntry{
			UserID: userID, Currency: currency, Amount: amount, Kind: models.TxRefund,
		})
		return nil
	}

	for _, p := range participants {
		if err := credit(p.UserID, models.CurrencyPoints, p.EntryFeePointsPaid); err != nil {
			return nil, err
		}
		if err := credit(p.UserID, models.CurrencyFeathers, p.EntryFeeFeathersPaid); err != nil {
			return nil, err
		}
		if p.BetAmount > 0 && p.BetCurrencyType != models.CurrencyNone {
			if err := credit(p.UserID, p.BetCurrencyType, p.BetAmount); err != nil {
				return nil, err
			}
		}
	}

	// Creation cost comes back from the journal, not the session config,
	// so a VIP creator who never paid gets nothing back.
	type costRow struct {
		Currency models.CurrencyType
		Total    int64
	}
	var costs []costRow
	if err := tx.Model(&models.LedgerTransaction{}).
		Select("currency, SUM(amount) as total").
		Where("match_session_id = ? AND user_id = ? AND kind = ?", sessionID, session.CreatorID, models.TxCreationCost).
		Group("currency").
		Scan(&costs).Error; err != nil {
		return nil, err
	}
	for _, c := range costs {
		if err := credit(session.CreatorID, c.Currency, c.Total); err != nil {
			return nil, err
		}
	}

	log.Printf("[Ledger] Session %s refunded: %d credits", sessionID, len(summary.Refunds))
	return summary, nil
}

// --- HTTP handlers ---

// GetMyWallet returns the caller's wallet snapshot.
func (s *LedgerService) GetMyWallet(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	wallet, err := s.GetWallet(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(wallet)
}

// GetMyTransactions returns the caller's ledger history, newest first.
func (s *LedgerService) GetMyTransactions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	var txns []models.LedgerTransaction
	query := s.DB.Where("user_id = ?", userID)
	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txns).Error; err != nil {
		log.Printf("ERROR fetching transactions for user %s: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch transactions"})
	}

	return c.JSON(fiber.Map{
		"transactions": txns,
		"limit":        limit,
		"offset":       offset,
	})
}
