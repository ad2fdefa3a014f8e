package services

import (
	"errors"
	"log"
	"regexp"
	"strconv"
	"time"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionService owns the match-session lifecycle. It is the only
// writer of session and participant state; all currency movement goes
// through the ledger inside the same database transaction.
type SessionService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewSessionService(db *gorm.DB, ledger *LedgerService) *SessionService {
	return &SessionService{DB: db, Ledger: ledger}
}

var passwordPattern = regexp.MustCompile(`^[0-9]{6}$`)

type seedParticipant struct {
	UserID string `json:"user_id"`
	Team   int    `json:"team"`
}

type createSessionRequest struct {
	MatchType            models.MatchType    `json:"match_type"`
	EntryFeePoints       int64               `json:"entry_fee_points"`
	EntryFeeFeathers     int64               `json:"entry_fee_feathers"`
	BetCurrencyType      models.CurrencyType `json:"bet_currency_type"`
	BetAmountPerPlayer   int64               `json:"bet_amount_per_player"`
	CreationCostPoints   int64               `json:"creation_cost_points"`
	CreationCostFeathers int64               `json:"creation_cost_feathers"`
	Password             string              `json:"password"`
	IsRanked             *bool               `json:"is_ranked"`
	Participants         []seedParticipant   `json:"participants"`
}

// CompletionResult is the complete-endpoint payload.
type CompletionResult struct {
	Session       *models.MatchSession `json:"session"`
	RatingChanges []RatingChange       `json:"rating_changes"`
	Rewards       []RefundEntry        `json:"rewards"`
}

func (s *SessionService) createSession(creatorID string, req *createSessionRequest) (*models.MatchSession, error) {
	if !req.MatchType.Valid() {
		return nil, validationf("invalid match_type %q", string(req.MatchType))
	}
	if req.EntryFeePoints < 0 || req.EntryFeeFeathers < 0 || req.CreationCostPoints < 0 || req.CreationCostFeathers < 0 || req.BetAmountPerPlayer < 0 {
		return nil, validationf("fees, costs and bets must not be negative")
	}
	if req.BetCurrencyType == "" {
		req.BetCurrencyType = models.CurrencyNone
	}
	if !req.BetCurrencyType.Valid() {
		return nil, validationf("invalid bet_currency_type %q", string(req.BetCurrencyType))
	}
	if req.BetAmountPerPlayer > 0 && req.BetCurrencyType == models.CurrencyNone {
		return nil, validationf("bet_amount_per_player requires a bet_currency_type")
	}
	if req.BetAmountPerPlayer == 0 {
		req.BetCurrencyType = models.CurrencyNone
	}
	if req.Password != "" && !passwordPattern.MatchString(req.Password) {
		return nil, validationf("password must be exactly 6 digits")
	}

	maxPlayers := req.MatchType.PlayersPerSession()
	if len(req.Participants) > maxPlayers {
		return nil, validationf("%s sessions hold at most %d participants", string(req.MatchType), maxPlayers)
	}
	perTeam := map[int]int{}
	seen := map[string]bool{}
	for _, p := range req.Participants {
		if p.Team != 1 && p.Team != 2 {
			return nil, validationf("participant team must be 1 or 2")
		}
		if seen[p.UserID] {
			return nil, validationf("duplicate participant %s", p.UserID)
		}
		seen[p.UserID] = true
		perTeam[p.Team]++
		if perTeam[p.Team] > maxPlayers/2 {
			return nil, validationf("team %d holds at most %d players", p.Team, maxPlayers/2)
		}
	}

	isRanked := true
	if req.IsRanked != nil {
		isRanked = *req.IsRanked
	}

	now := time.Now()
	session := &models.MatchSession{
		ID:                   uuid.NewString(),
		MatchType:            req.MatchType,
		Status:               models.SessionStatusPending,
		CreatorID:            creatorID,
		EntryFeePoints:       req.EntryFeePoints,
		EntryFeeFeathers:     req.EntryFeeFeathers,
		BetCurrencyType:      req.BetCurrencyType,
		BetAmountPerPlayer:   req.BetAmountPerPlayer,
		CreationCostPoints:   req.CreationCostPoints,
		CreationCostFeathers: req.CreationCostFeathers,
		Password:             req.Password,
		IsRanked:             isRanked,
		PlayerCount:          len(req.Participants),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		creator, err := loadWallet(tx, creatorID)
		if err != nil {
			return err
		}

		if err := tx.Create(session).Error; err != nil {
			return err
		}

		if !creator.VipActive(now) {
			legs := []Leg{}
			if req.CreationCostPoints > 0 {
				legs = append(legs, Leg{Currency: models.CurrencyPoints, Amount: req.CreationCostPoints, Kind: models.TxCreationCost})
			}
			if req.CreationCostFeathers > 0 {
				legs = append(legs, Leg{Currency: models.CurrencyFeathers, Amount: req.CreationCostFeathers, Kind: models.TxCreationCost})
			}
			if len(legs) > 0 {
				if err := s.Ledger.MultiDebitTx(tx, creatorID, &session.ID, legs); err != nil {
					return err
				}
			}
		}

		// Participants supplied at creation are seated and charged like
		// joiners; each pays the points fee component when one is
		// configured, otherwise the feathers component.
		entryCurrency := models.CurrencyPoints
		if req.EntryFeePoints == 0 && req.EntryFeeFeathers > 0 {
			entryCurrency = models.CurrencyFeathers
		}
		for _, seed := range req.Participants {
			if _, err := s.seatParticipant(tx, session, seed.UserID, seed.Team, entryCurrency, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session.MaxPlayers = maxPlayers
	return session, nil
}

// seatParticipant charges a player and inserts the participant row.
// Capacity must already be reserved by the caller.
func (s *SessionService) seatParticipant(tx *gorm.DB, session *models.MatchSession, userID string, team int, entryCurrency models.CurrencyType, now time.Time) (*models.MatchParticipant, error) {
	wallet, err := loadWallet(tx, userID)
	if err != nil {
		return nil, err
	}

	if required := session.MatchType.RequiredGender(); required != "" && wallet.Gender != required {
		return nil, validationf("%s sessions are restricted by gender", string(session.MatchType))
	}

	var fee int64
	switch entryCurrency {
	case models.CurrencyPoints:
		fee = session.EntryFeePoints
	case models.CurrencyFeathers:
		fee = session.EntryFeeFeathers
	default:
		return nil, validationf("invalid entry currency %q", string(entryCurrency))
	}
	if fee == 0 && session.EntryFeePoints+session.EntryFeeFeathers > 0 {
		return nil, validationf("session does not accept %s as entry currency", string(entryCurrency))
	}
	if wallet.VipActive(now) {
		fee = 0
	}

	legs := []Leg{}
	if fee > 0 {
		legs = append(legs, Leg{Currency: entryCurrency, Amount: fee, Kind: models.TxEntryFee})
	}
	if session.BetAmountPerPlayer > 0 {
		legs = append(legs, Leg{Currency: session.BetCurrencyType, Amount: session.BetAmountPerPlayer, Kind: models.TxBet})
	}
	if len(legs) > 0 {
		if err := s.Ledger.MultiDebitTx(tx, userID, &session.ID, legs); err != nil {
			return nil, err
		}
	}

	participant := &models.MatchParticipant{
		ID:              uuid.NewString(),
		MatchSessionID:  session.ID,
		UserID:          userID,
		Team:            team,
		BetAmount:       session.BetAmountPerPlayer,
		BetCurrencyType: session.BetCurrencyType,
	}
	if entryCurrency == models.CurrencyPoints {
		participant.EntryFeePointsPaid = fee
	} else {
		participant.EntryFeeFeathersPaid = fee
	}
	if err := tx.Create(participant).Error; err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *SessionService) joinSession(sessionID, userID string, team int, entryCurrency models.CurrencyType, password string) (*models.MatchParticipant, error) {
	if team != 1 && team != 2 {
		return nil, validationf("team must be 1 or 2")
	}
	if entryCurrency == "" {
		entryCurrency = models.CurrencyPoints
	}

	now := time.Now()
	var participant *models.MatchParticipant

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var session models.MatchSession
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "session"}
			}
			return err
		}

		if session.Status != models.SessionStatusPending {
			return &StateConflictError{Reason: "session is not open for joining", Current: string(session.Status)}
		}
		if session.HasPassword() && session.Password != password {
			return validationf("wrong session password")
		}

		var existing int64
		if err := tx.Model(&models.MatchParticipant{}).
			Where("match_session_id = ? AND user_id = ?", sessionID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return &StateConflictError{Reason: "already joined this session"}
		}

		maxPlayers := session.MatchType.PlayersPerSession()

		// Reserve the slot with a single conditional increment; the
		// loser of a capacity race gets zero rows here and everything
		// it did inside this transaction rolls back.
		res := tx.Model(&models.MatchSession{}).
			Where("id = ? AND status = ? AND player_count < ?", sessionID, models.SessionStatusPending, maxPlayers).
			Update("player_count", gorm.Expr("player_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current models.MatchSession
			if err := tx.First(&current, "id = ?", sessionID).Error; err != nil {
				return &NotFoundError{Resource: "session"}
			}
			if current.Status != models.SessionStatusPending {
				return &StateConflictError{Reason: "session is not open for joining", Current: string(current.Status)}
			}
			return &StateConflictError{Reason: "session is full", Current: string(current.Status)}
		}

		var teamCount int64
		if err := tx.Model(&models.MatchParticipant{}).
			Where("match_session_id = ? AND team = ?", sessionID, team).
			Count(&teamCount).Error; err != nil {
			return err
		}
		if int(teamCount) >= maxPlayers/2 {
			return &StateConflictError{Reason: "team is full"}
		}

		var err error
		participant, err = s.seatParticipant(tx, &session, userID, team, entryCurrency, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *SessionService) completeSession(sessionID, requesterID string, result models.MatchResult, team1Score, team2Score int) (*CompletionResult, error) {
	var out *CompletionResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var session models.MatchSession
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "session"}
			}
			return err
		}
		if session.CreatorID != requesterID {
			return &AuthorizationError{Reason: "only the session creator may report the result"}
		}
		if !result.ValidFor(session.MatchType) {
			return validationf("result %q is invalid for %s", string(result), string(session.MatchType))
		}
		if session.PlayerCount != session.MatchType.PlayersPerSession() {
			return &StateConflictError{Reason: "session roster is not complete", Current: string(session.Status)}
		}

		now := time.Now()
		res := tx.Model(&models.MatchSession{}).
			Where("id = ? AND status IN ?", sessionID, []models.SessionStatus{models.SessionStatusPending, models.SessionStatusInProgress}).
			Updates(map[string]interface{}{
				"status":       models.SessionStatusCompleted,
				"result":       result,
				"team1_score":  team1Score,
				"team2_score":  team2Score,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current models.MatchSession
			if err := tx.First(&current, "id = ?", sessionID).Error; err != nil {
				return err
			}
			if current.Status.Terminal() {
				return &StateConflictError{Reason: "session is already settled", Current: string(current.Status)}
			}
			return &StateConflictError{Reason: "session changed state, retry", Current: string(current.Status)}
		}

		var participants []models.MatchParticipant
		if err := tx.Where("match_session_id = ?", sessionID).Find(&participants).Error; err != nil {
			return err
		}

		out = &CompletionResult{RatingChanges: []RatingChange{}, Rewards: []RefundEntry{}}

		if session.IsRanked {
			changes, err := s.applyRatings(tx, &session, participants, result)
			if err != nil {
				return err
			}
			out.RatingChanges = changes
		}

		rewards, err := s.settle(tx, &session, participants, result)
		if err != nil {
			return err
		}
		out.Rewards = rewards

		session.Status = models.SessionStatusCompleted
		session.Result = &result
		session.Team1Score = &team1Score
		session.Team2Score = &team2Score
		session.CompletedAt = &now
		session.MaxPlayers = session.MatchType.PlayersPerSession()
		out.Session = &session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// applyRatings runs the rating engine over the roster and persists the
// per-discipline tracks plus the participant rating columns.
func (s *SessionService) applyRatings(tx *gorm.DB, session *models.MatchSession, participants []models.MatchParticipant, result models.MatchResult) ([]RatingChange, error) {
	records := map[string]*models.RatingRecord{}
	var team1, team2 []PlayerRating
	for _, p := range participants {
		record, err := loadOrInitRating(tx, p.UserID, session.MatchType)
		if err != nil {
			return nil, err
		}
		records[p.UserID] = record
		pr := PlayerRating{UserID: p.UserID, Rating: record.Rating, GamesPlayed: record.GamesPlayed}
		if p.Team == 1 {
			team1 = append(team1, pr)
		} else {
			team2 = append(team2, pr)
		}
	}

	changes := UpdateRatings(session.MatchType, team1, team2, result)

	for _, change := range changes {
		record := records[change.UserID]
		record.Rating = change.After
		if change.After > record.PeakRating {
			record.PeakRating = change.After
		}
		record.GamesPlayed++
		if change.Won {
			record.Wins++
		}
		if err := tx.Save(record).Error; err != nil {
			return nil, err
		}
		if err := tx.Model(&models.MatchParticipant{}).
			Where("match_session_id = ? AND user_id = ?", session.ID, change.UserID).
			Updates(map[string]interface{}{
				"rating_before": change.Before,
				"rating_after":  change.After,
				"rating_change": change.Delta,
			}).Error; err != nil {
			return nil, err
		}
	}
	return changes, nil
}

// settle disburses the completion-time money: the pooled entry fees go
// to the winning team in equal shares, bets are paid back as recorded,
// and the creator's creation cost comes home.
func (s *SessionService) settle(tx *gorm.DB, session *models.MatchSession, participants []models.MatchParticipant, result models.MatchResult) ([]RefundEntry, error) {
	rewards := []RefundEntry{}
	winningTeam := result.WinningTeam()

	var poolPoints, poolFeathers int64
	var winners []models.MatchParticipant
	for _, p := range participants {
		poolPoints += p.EntryFeePointsPaid
		poolFeathers += p.EntryFeeFeathersPaid
		if p.Team == winningTeam {
			winners = append(winners, p)
		}
	}

	if len(winners) > 0 {
		sharePoints := poolPoints / int64(len(winners))
		shareFeathers := poolFeathers / int64(len(winners))
		for _, w := range winners {
			if sharePoints > 0 {
				if err := s.Ledger.CreditTx(tx, w.UserID, &session.ID, models.CurrencyPoints, sharePoints, models.TxReward); err != nil {
					return nil, err
				}
				rewards = append(rewards, RefundEntry{UserID: w.UserID, Currency: models.CurrencyPoints, Amount: sharePoints, Kind: models.TxReward})
			}
			if shareFeathers > 0 {
				if err := s.Ledger.CreditTx(tx, w.UserID, &session.ID, models.CurrencyFeathers, shareFeathers, models.TxReward); err != nil {
					return nil, err
				}
				rewards = append(rewards, RefundEntry{UserID: w.UserID, Currency: models.CurrencyFeathers, Amount: shareFeathers, Kind: models.TxReward})
			}
			if err := tx.Model(&models.MatchParticipant{}).
				Where("id = ?", w.ID).
				Update("points_earned", sharePoints).Error; err != nil {
				return nil, err
			}
		}
	}

	// Bets are paid back, not redistributed.
	for _, p := range participants {
		if p.BetAmount > 0 && p.BetCurrencyType != models.CurrencyNone {
			if err := s.Ledger.CreditTx(tx, p.UserID, &session.ID, p.BetCurrencyType, p.BetAmount, models.TxRefund); err != nil {
				return nil, err
			}
			rewards = append(rewards, RefundEntry{UserID: p.UserID, Currency: p.BetCurrencyType, Amount: p.BetAmount, Kind: models.TxRefund})
		}
	}

	// Creation cost comes back from the journal: VIP creators never paid.
	type costRow struct {
		Currency models.CurrencyType
		Total    int64
	}
	var costs []costRow
	if err := tx.Model(&models.LedgerTransaction{}).
		Select("currency, SUM(amount) as total").
		Where("match_session_id = ? AND user_id = ? AND kind = ?", session.ID, session.CreatorID, models.TxCreationCost).
		Group("currency").
		Scan(&costs).Error; err != nil {
		return nil, err
	}
	for _, cost := range costs {
		if err := s.Ledger.CreditTx(tx, session.CreatorID, &session.ID, cost.Currency, cost.Total, models.TxRefund); err != nil {
			return nil, err
		}
		rewards = append(rewards, RefundEntry{UserID: session.CreatorID, Currency: cost.Currency, Amount: cost.Total, Kind: models.TxRefund})
	}
	return rewards, nil
}

func (s *SessionService) cancelSession(sessionID, requesterID string, isAdmin bool) (*RefundSummary, error) {
	var summary *RefundSummary

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var session models.MatchSession
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "session"}
			}
			return err
		}
		if session.CreatorID != requesterID && !isAdmin {
			return &AuthorizationError{Reason: "only the creator or an admin may cancel a session"}
		}

		res := tx.Model(&models.MatchSession{}).
			Where("id = ? AND status IN ?", sessionID, []models.SessionStatus{models.SessionStatusPending, models.SessionStatusInProgress}).
			Update("status", models.SessionStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current models.MatchSession
			if err := tx.First(&current, "id = ?", sessionID).Error; err != nil {
				return err
			}
			if current.Status.Terminal() {
				return &StateConflictError{Reason: "session is already settled", Current: string(current.Status)}
			}
			return &StateConflictError{Reason: "session changed state, retry", Current: string(current.Status)}
		}

		var err error
		summary, err = s.Ledger.RefundSessionTx(tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *SessionService) deleteSession(sessionID, requesterID string) (*RefundSummary, error) {
	var summary *RefundSummary

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var session models.MatchSession
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "session"}
			}
			return err
		}
		if session.CreatorID != requesterID {
			return &AuthorizationError{Reason: "only the creator may delete a session"}
		}
		if session.Status != models.SessionStatusPending {
			return &StateConflictError{Reason: "only pending sessions can be deleted", Current: string(session.Status)}
		}

		var err error
		summary, err = s.Ledger.RefundSessionTx(tx, sessionID)
		if err != nil {
			return err
		}

		if err := tx.Where("match_session_id = ?", sessionID).Delete(&models.MatchParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("match_session_id = ?", sessionID).Delete(&models.MatchInvitation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.MatchSession{}, "id = ?", sessionID).Error
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func loadWallet(tx *gorm.DB, userID string) (*models.UserWallet, error) {
	var wallet models.UserWallet
	if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "wallet"}
		}
		return nil, err
	}
	return &wallet, nil
}

func loadOrInitRating(tx *gorm.DB, userID string, discipline models.MatchType) (*models.RatingRecord, error) {
	var record models.RatingRecord
	err := tx.Where("user_id = ? AND discipline = ?", userID, discipline).First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	record = models.RatingRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		Discipline: discipline,
		Rating:     models.DefaultRating,
		PeakRating: models.DefaultRating,
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// --- HTTP handlers ---

func (s *SessionService) CreateSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	session, err := s.createSession(userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(session)
}

func (s *SessionService) JoinSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	sessionID := c.Params("id")

	var req struct {
		EntryCurrency models.CurrencyType `json:"entry_currency"`
		Team          int                 `json:"team"`
		Password      string              `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	participant, err := s.joinSession(sessionID, userID, req.Team, req.EntryCurrency, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "joined session",
		"participant": participant,
	})
}

func (s *SessionService) CompleteSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	sessionID := c.Params("id")

	var req struct {
		Result     models.MatchResult `json:"result"`
		Team1Score int                `json:"team1_score"`
		Team2Score int                `json:"team2_score"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	result, err := s.completeSession(sessionID, userID, req.Result, req.Team1Score, req.Team2Score)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (s *SessionService) CancelSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	sessionID := c.Params("id")

	summary, err := s.cancelSession(sessionID, userID, hasRole(c, "admin"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "session cancelled",
		"refunds": summary,
	})
}

func (s *SessionService) DeleteSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	sessionID := c.Params("id")

	summary, err := s.deleteSession(sessionID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "session deleted",
		"refunds": summary,
	})
}

func (s *SessionService) GetSession(c *fiber.Ctx) error {
	var session models.MatchSession
	err := s.DB.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&session, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		log.Printf("ERROR fetching session %s: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	session.MaxPlayers = session.MatchType.PlayersPerSession()
	return c.JSON(session)
}

func (s *SessionService) ListSessions(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	query := s.DB.Model(&models.MatchSession{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if matchType := c.Query("match_type"); matchType != "" {
		query = query.Where("match_type = ?", matchType)
	}

	var sessions []models.MatchSession
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&sessions).Error; err != nil {
		log.Printf("ERROR fetching sessions: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch sessions"})
	}
	for i := range sessions {
		sessions[i].MaxPlayers = sessions[i].MatchType.PlayersPerSession()
	}
	return c.JSON(fiber.Map{
		"sessions": sessions,
		"limit":    limit,
		"offset":   offset,
	})
}

func hasRole(c *fiber.Ctx, role string) bool {
	roles, _ := c.Locals("user_roles").([]string)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
