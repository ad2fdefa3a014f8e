package services

import (
	"sync"
	"testing"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateSessionValidation(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 1000, 1000)

	cases := []struct {
		name string
		req  createSessionRequest
	}{
		{"invalid match type", createSessionRequest{MatchType: "ZZ"}},
		{"bet without currency", createSessionRequest{MatchType: models.MatchTypeMS, BetAmountPerPlayer: 10}},
		{"negative fee", createSessionRequest{MatchType: models.MatchTypeMS, EntryFeePoints: -1}},
		{"short password", createSessionRequest{MatchType: models.MatchTypeMS, Password: "123"}},
		{"non-numeric password", createSessionRequest{MatchType: models.MatchTypeMS, Password: "abc123"}},
		{"too many participants", createSessionRequest{
			MatchType: models.MatchTypeMS,
			Participants: []seedParticipant{
				{UserID: "u1", Team: 1}, {UserID: "u2", Team: 2}, {UserID: "u3", Team: 1},
			},
		}},
		{"team overflow", createSessionRequest{
			MatchType: models.MatchTypeMS,
			Participants: []seedParticipant{
				{UserID: "u1", Team: 1}, {UserID: "u2", Team: 1},
			},
		}},
		{"duplicate participant", createSessionRequest{
			MatchType: models.MatchTypeMD,
			Participants: []seedParticipant{
				{UserID: "u1", Team: 1}, {UserID: "u1", Team: 2},
			},
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := sessions.createSession(creator, &c.req)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
}

func TestCreateSessionChargesCreationCost(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 50)

	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType:            models.MatchTypeMS,
		CreationCostPoints:   30,
		CreationCostFeathers: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPending, session.Status)
	assert.Equal(t, 2, session.MaxPlayers)

	points, feathers := walletBalances(t, db, creator)
	assert.Equal(t, int64(70), points)
	assert.Equal(t, int64(40), feathers)
	assert.Equal(t, int64(2), journalCount(t, db, creator, models.TxCreationCost))
}

func TestCreateSessionVipCreatorPaysNothing(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedVipWallet(t, db, "vip-creator", models.GenderFemale, 100, 0)

	_, err := sessions.createSession(creator, &createSessionRequest{
		MatchType:          models.MatchTypeWS,
		CreationCostPoints: 30,
	})
	require.NoError(t, err)

	points, _ := walletBalances(t, db, creator)
	assert.Equal(t, int64(100), points)
	assert.Equal(t, int64(0), journalCount(t, db, creator, models.TxCreationCost))
}

func TestCreateSessionSeatsSeededParticipants(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	p1 := seedWallet(t, db, "p1", models.GenderMale, 100, 0)
	p2 := seedWallet(t, db, "p2", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType:      models.MatchTypeMS,
		EntryFeePoints: 30,
		Participants: []seedParticipant{
			{UserID: p1, Team: 1},
			{UserID: p2, Team: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, session.PlayerCount)

	for _, userID := range []string{p1, p2} {
		points, _ := walletBalances(t, db, userID)
		assert.Equal(t, int64(70), points)
	}

	var count int64
	require.NoError(t, db.Model(&models.MatchParticipant{}).
		Where("match_session_id = ?", session.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestJoinSessionChargesFeeAndBet(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	joiner := seedWallet(t, db, "joiner", models.GenderMale, 100, 50)

	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType:          models.MatchTypeMS,
		EntryFeePoints:     40,
		BetCurrencyType:    models.CurrencyFeathers,
		BetAmountPerPlayer: 15,
	})
	require.NoError(t, err)

	participant, err := sessions.joinSession(session.ID, joiner, 1, models.CurrencyPoints, "")
	require.NoError(t, err)
	assert.Equal(t, int64(40), participant.EntryFeePointsPaid)
	assert.Equal(t, int64(0), participant.EntryFeeFeathersPaid)
	assert.Equal(t, int64(15), participant.BetAmount)
	assert.Equal(t, models.CurrencyFeathers, participant.BetCurrencyType)

	points, feathers := walletBalances(t, db, joiner)
	assert.Equal(t, int64(60), points)
	assert.Equal(t, int64(35), feathers)
}

func TestJoinSessionRejectsWrongGender(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	joiner := seedWallet(t, db, "joiner", models.GenderFemale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{MatchType: models.MatchTypeMS})
	require.NoError(t, err)

	_, err = sessions.joinSession(session.ID, joiner, 1, models.CurrencyPoints, "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestJoinSessionPassword(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	joiner := seedWallet(t, db, "joiner", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType: models.MatchTypeMS,
		Password:  "123456",
	})
	require.NoError(t, err)

	_, err = sessions.joinSession(session.ID, joiner, 1, models.CurrencyPoints, "000000")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = sessions.joinSession(session.ID, joiner, 1, models.CurrencyPoints, "123456")
	require.NoError(t, err)
}

func TestJoinSessionDuplicate(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	joiner := seedWallet(t, db, "joiner", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{MatchType: models.MatchTypeMD})
	require.NoError(t, err)

	_, err = sessions.joinSession(session.ID, joiner, 1, models.CurrencyPoints, "")
	require.NoError(t, err)

	_, err = sessions.joinSession(session.ID, joiner, 2, models.CurrencyPoints, "")
	var sc *StateConflictError
	require.ErrorAs(t, err, &sc)
}

func TestJoinSessionVipPaysNoFeeButBets(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	vip := seedVipWallet(t, db, "vip", models.GenderMale, 100, 50)

	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType:          models.MatchTypeMS,
		EntryFeePoints:     40,
		BetCurrencyType:    models.CurrencyFeathers,
		BetAmountPerPlayer: 10,
	})
	require.NoError(t, err)

	participant, err := sessions.joinSession(session.ID, vip, 1, models.CurrencyPoints, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), participant.EntryFeePointsPaid)

	points, feathers := walletBalances(t, db, vip)
	assert.Equal(t, int64(100), points)
	assert.Equal(t, int64(40), feathers)
}

func TestJoinSessionInsufficientFunds(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	broke := seedWallet(t, db, "broke", models.GenderMale, 10, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType:      models.MatchTypeMS,
		EntryFeePoints: 40,
	})
	require.NoError(t, err)

	_, err = sessions.joinSession(session.ID, broke, 1, models.CurrencyPoints, "")
	var inf *InsufficientFundsError
	require.ErrorAs(t, err, &inf)

	points, _ := walletBalances(t, db, broke)
	assert.Equal(t, int64(10), points)

	// The failed join must not leak a reserved slot.
	var current models.MatchSession
	require.NoError(t, db.First(&current, "id = ?", session.ID).Error)
	assert.Equal(t, 0, current.PlayerCount)
}

func TestJoinSessionFull(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	a := seedWallet(t, db, "a", models.GenderMale, 100, 0)
	b := seedWallet(t, db, "b", models.GenderMale, 100, 0)
	late := seedWallet(t, db, "late", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{MatchType: models.MatchTypeMS})
	require.NoError(t, err)

	_, err = sessions.joinSession(session.ID, a, 1, models.CurrencyPoints, "")
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, b, 2, models.CurrencyPoints, "")
	require.NoError(t, err)

	_, err = sessions.joinSession(session.ID, late, 1, models.CurrencyPoints, "")
	var sc *StateConflictError
	require.ErrorAs(t, err, &sc)
}

func TestConcurrentJoinsNeverExceedCapacity(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType:      models.MatchTypeMD,
		EntryFeePoints: 10,
	})
	require.NoError(t, err)

	// Six players race for four slots, three per team.
	type attempt struct {
		userID string
		team   int
	}
	attempts := make([]attempt, 0, 6)
	for i := 0; i < 6; i++ {
		userID := seedWallet(t, db, "racer", models.GenderMale, 100, 0)
		attempts = append(attempts, attempt{userID: userID, team: i%2 + 1})
	}

	var wg sync.WaitGroup
	errs := make([]error, len(attempts))
	for i, a := range attempts {
		wg.Add(1)
		go func(i int, a attempt) {
			defer wg.Done()
			_, errs[i] = sessions.joinSession(session.ID, a.userID, a.team, models.CurrencyPoints, "")
		}(i, a)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var sc *StateConflictError
			require.ErrorAs(t, err, &sc)
		}
	}
	assert.Equal(t, 4, succeeded)

	var current models.MatchSession
	require.NoError(t, db.First(&current, "id = ?", session.ID).Error)
	assert.Equal(t, 4, current.PlayerCount)

	for team := 1; team <= 2; team++ {
		var count int64
		require.NoError(t, db.Model(&models.MatchParticipant{}).
			Where("match_session_id = ? AND team = ?", session.ID, team).Count(&count).Error)
		assert.Equal(t, int64(2), count, "team %d", team)
	}
}

func TestCompleteSessionSettlement(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 500, 0)
	winner := seedWallet(t, db, "winner", models.GenderMale, 300, 100)
	loser := seedWallet(t, db, "loser", models.GenderMale, 300, 100)

	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType:          models.MatchTypeMS,
		EntryFeePoints:     100,
		BetCurrencyType:    models.CurrencyFeathers,
		BetAmountPerPlayer: 20,
		CreationCostPoints: 50,
	})
	require.NoError(t, err)

	_, err = sessions.joinSession(session.ID, winner, 1, models.CurrencyPoints, "")
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, loser, 2, models.CurrencyPoints, "")
	require.NoError(t, err)

	pointsBefore := totalBalance(t, db, models.CurrencyPoints)
	feathersBefore := totalBalance(t, db, models.CurrencyFeathers)

	out, err := sessions.completeSession(session.ID, creator, models.ResultPlayer1Win, 21, 15)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, out.Session.Status)
	require.NotNil(t, out.Session.Result)
	assert.Equal(t, models.ResultPlayer1Win, *out.Session.Result)

	// The winner takes the whole entry-fee pool; bets and creation cost
	// go home.
	winnerPoints, winnerFeathers := walletBalances(t, db, winner)
	assert.Equal(t, int64(400), winnerPoints)
	assert.Equal(t, int64(100), winnerFeathers)

	loserPoints, loserFeathers := walletBalances(t, db, loser)
	assert.Equal(t, int64(200), loserPoints)
	assert.Equal(t, int64(100), loserFeathers)

	creatorPoints, _ := walletBalances(t, db, creator)
	assert.Equal(t, int64(500), creatorPoints)

	// Settlement conserves both currencies.
	assert.Equal(t, pointsBefore, totalBalance(t, db, models.CurrencyPoints))
	assert.Equal(t, feathersBefore, totalBalance(t, db, models.CurrencyFeathers))

	var winnerRow models.MatchParticipant
	require.NoError(t, db.Where("match_session_id = ? AND user_id = ?", session.ID, winner).First(&winnerRow).Error)
	assert.Equal(t, int64(200), winnerRow.PointsEarned)

	// Fresh 1500-rated players at K=40 move by 20.
	require.Len(t, out.RatingChanges, 2)
	var winnerRecord, loserRecord models.RatingRecord
	require.NoError(t, db.Where("user_id = ? AND discipline = ?", winner, models.MatchTypeMS).First(&winnerRecord).Error)
	require.NoError(t, db.Where("user_id = ? AND discipline = ?", loser, models.MatchTypeMS).First(&loserRecord).Error)
	assert.Equal(t, 1520, winnerRecord.Rating)
	assert.Equal(t, 1520, winnerRecord.PeakRating)
	assert.Equal(t, 1, winnerRecord.GamesPlayed)
	assert.Equal(t, 1, winnerRecord.Wins)
	assert.Equal(t, 1480, loserRecord.Rating)
	assert.Equal(t, 1500, loserRecord.PeakRating)
	assert.Equal(t, 0, loserRecord.Wins)

	assert.Equal(t, 1520, winnerRow.RatingAfter)
	assert.Equal(t, 20, winnerRow.RatingChange)
}

func TestCompleteSessionRequiresCreator(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	a := seedWallet(t, db, "a", models.GenderMale, 100, 0)
	b := seedWallet(t, db, "b", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{MatchType: models.MatchTypeMS})
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, a, 1, models.CurrencyPoints, "")
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, b, 2, models.CurrencyPoints, "")
	require.NoError(t, err)

	_, err = sessions.completeSession(session.ID, a, models.ResultPlayer1Win, 21, 10)
	var ae *AuthorizationError
	require.ErrorAs(t, err, &ae)
}

func TestCompleteSessionRequiresFullRoster(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	a := seedWallet(t, db, "a", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{MatchType: models.MatchTypeMS})
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, a, 1, models.CurrencyPoints, "")
	require.NoError(t, err)

	_, err = sessions.completeSession(session.ID, creator, models.ResultPlayer1Win, 21, 10)
	var sc *StateConflictError
	require.ErrorAs(t, err, &sc)
}

func TestCompleteSessionRejectsWrongResultArity(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	a := seedWallet(t, db, "a", models.GenderMale, 100, 0)
	b := seedWallet(t, db, "b", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{MatchType: models.MatchTypeMS})
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, a, 1, models.CurrencyPoints, "")
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, b, 2, models.CurrencyPoints, "")
	require.NoError(t, err)

	_, err = sessions.completeSession(session.ID, creator, models.ResultTeam1Win, 21, 10)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCompleteSessionTwice(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	a := seedWallet(t, db, "a", models.GenderMale, 100, 0)
	b := seedWallet(t, db, "b", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{MatchType: models.MatchTypeMS})
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, a, 1, models.CurrencyPoints, "")
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, b, 2, models.CurrencyPoints, "")
	require.NoError(t, err)

	_, err = sessions.completeSession(session.ID, creator, models.ResultPlayer1Win, 21, 10)
	require.NoError(t, err)

	_, err = sessions.completeSession(session.ID, creator, models.ResultPlayer2Win, 10, 21)
	var sc *StateConflictError
	require.ErrorAs(t, err, &sc)
}

func TestUnrankedSessionSkipsRatings(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	a := seedWallet(t, db, "a", models.GenderMale, 100, 0)
	b := seedWallet(t, db, "b", models.GenderMale, 100, 0)

	unranked := false
	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType: models.MatchTypeMS,
		IsRanked:  &unranked,
	})
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, a, 1, models.CurrencyPoints, "")
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, b, 2, models.CurrencyPoints, "")
	require.NoError(t, err)

	out, err := sessions.completeSession(session.ID, creator, models.ResultPlayer1Win, 21, 10)
	require.NoError(t, err)
	assert.Empty(t, out.RatingChanges)

	var count int64
	require.NoError(t, db.Model(&models.RatingRecord{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCancelSessionRefundsEscrow(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 200, 0)
	joiner := seedWallet(t, db, "joiner", models.GenderMale, 100, 50)

	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType:          models.MatchTypeMS,
		EntryFeePoints:     50,
		BetCurrencyType:    models.CurrencyFeathers,
		BetAmountPerPlayer: 10,
		CreationCostPoints: 40,
	})
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, joiner, 1, models.CurrencyPoints, "")
	require.NoError(t, err)

	summary, err := sessions.cancelSession(session.ID, creator, false)
	require.NoError(t, err)
	assert.False(t, summary.AlreadyRefunded)

	points, feathers := walletBalances(t, db, joiner)
	assert.Equal(t, int64(100), points)
	assert.Equal(t, int64(50), feathers)
	creatorPoints, _ := walletBalances(t, db, creator)
	assert.Equal(t, int64(200), creatorPoints)

	var current models.MatchSession
	require.NoError(t, db.First(&current, "id = ?", session.ID).Error)
	assert.Equal(t, models.SessionStatusCancelled, current.Status)

	// A second cancel hits the terminal state.
	_, err = sessions.cancelSession(session.ID, creator, false)
	var sc *StateConflictError
	require.ErrorAs(t, err, &sc)
}

func TestCancelSessionAuthorization(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)
	stranger := seedWallet(t, db, "stranger", models.GenderMale, 100, 0)
	admin := seedWallet(t, db, "admin", models.GenderFemale, 0, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{MatchType: models.MatchTypeMS})
	require.NoError(t, err)

	_, err = sessions.cancelSession(session.ID, stranger, false)
	var ae *AuthorizationError
	require.ErrorAs(t, err, &ae)

	_, err = sessions.cancelSession(session.ID, admin, true)
	require.NoError(t, err)
}

func TestDeleteSessionPendingOnly(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 200, 0)
	joiner := seedWallet(t, db, "joiner", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{
		MatchType:      models.MatchTypeMS,
		EntryFeePoints: 30,
	})
	require.NoError(t, err)
	_, err = sessions.joinSession(session.ID, joiner, 1, models.CurrencyPoints, "")
	require.NoError(t, err)

	_, err = sessions.deleteSession(session.ID, joiner)
	var ae *AuthorizationError
	require.ErrorAs(t, err, &ae)

	_, err = sessions.deleteSession(session.ID, creator)
	require.NoError(t, err)

	points, _ := walletBalances(t, db, joiner)
	assert.Equal(t, int64(100), points)

	err = db.First(&models.MatchSession{}, "id = ?", session.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.MatchParticipant{}).
		Where("match_session_id = ?", session.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeleteSessionRejectsTerminal(t *testing.T) {
	db, _, sessions, _ := newTestServices(t)
	creator := seedWallet(t, db, "creator", models.GenderMale, 100, 0)

	session, err := sessions.createSession(creator, &createSessionRequest{MatchType: models.MatchTypeMS})
	require.NoError(t, err)
	_, err = sessions.cancelSession(session.ID, creator, false)
	require.NoError(t, err)

	_, err = sessions.deleteSession(session.ID, creator)
	var sc *StateConflictError
	require.ErrorAs(t, err, &sc)
}
