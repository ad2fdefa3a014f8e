package models

// MatchType is the badminton discipline of a session. Each discipline
// carries its own independent rating track.
type MatchType string

const (
	MatchTypeMS MatchType = "MS" // men's singles
	MatchTypeWS MatchType = "WS" // women's singles
	MatchTypeMD MatchType = "MD" // men's doubles
	MatchTypeWD MatchType = "WD" // women's doubles
	MatchTypeXD MatchType = "XD" // mixed doubles
)

// AllMatchTypes lists every discipline, in leaderboard order.
var AllMatchTypes = []MatchType{MatchTypeMS, MatchTypeWS, MatchTypeMD, MatchTypeWD, MatchTypeXD}

func (m MatchType) Valid() bool {
	switch m {
	case MatchTypeMS, MatchTypeWS, MatchTypeMD, MatchTypeWD, MatchTypeXD:
		return true
	}
	return false
}

func (m MatchType) IsDoubles() bool {
	return m == MatchTypeMD || m == MatchTypeWD || m == MatchTypeXD
}

// PlayersPerSession is the exact number of participant slots: 2 for
// singles, 4 for doubles.
func (m MatchType) PlayersPerSession() int {
	if m.IsDoubles() {
		return 4
	}
	return 2
}

// RequiredGender returns the gender a participant must have to enter
// the discipline, or empty when the discipline is open (mixed doubles).
func (m MatchType) RequiredGender() Gender {
	switch m {
	case MatchTypeMS, MatchTypeMD:
		return GenderMale
	case MatchTypeWS, MatchTypeWD:
		return GenderFemale
	}
	return ""
}

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// SessionStatus is the match-session lifecycle state. COMPLETED and
// CANCELLED are terminal.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "PENDING"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusCancelled  SessionStatus = "CANCELLED"
)

func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// CurrencyType selects one of the two wallet balances.
type CurrencyType string

const (
	CurrencyNone     CurrencyType = "NONE"
	CurrencyPoints   CurrencyType = "POINTS"
	CurrencyFeathers CurrencyType = "FEATHERS"
)

func (c CurrencyType) Valid() bool {
	return c == CurrencyNone || c == CurrencyPoints || c == CurrencyFeathers
}

// MatchResult encodes the outcome reported at completion. Singles use
// the PLAYER forms, doubles the TEAM forms.
type MatchResult string

const (
	ResultPlayer1Win MatchResult = "PLAYER1_WIN"
	ResultPlayer2Win MatchResult = "PLAYER2_WIN"
	ResultTeam1Win   MatchResult = "TEAM1_WIN"
	ResultTeam2Win   MatchResult = "TEAM2_WIN"
)

// ValidFor reports whether the result form matches the discipline arity.
func (r MatchResult) ValidFor(m MatchType) bool {
	if m.IsDoubles() {
		return r == ResultTeam1Win || r == ResultTeam2Win
	}
	return r == ResultPlayer1Win || r == ResultPlayer2Win
}

// WinningTeam maps the result onto team numbers 1/2.
func (r MatchResult) WinningTeam() int {
	if r == ResultPlayer1Win || r == ResultTeam1Win {
		return 1
	}
	return 2
}

// InvitationStatus is the invitation lifecycle state. Everything after
// PENDING is terminal.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationAccepted  InvitationStatus = "ACCEPTED"
	InvitationDeclined  InvitationStatus = "DECLINED"
	InvitationCancelled InvitationStatus = "CANCELLED"
)

// TransactionKind labels a ledger entry. Kinds ENTRY_FEE, BET and
// CREATION_COST journal debits; REFUND and REWARD journal credits.
type TransactionKind string

const (
	TxEntryFee     TransactionKind = "ENTRY_FEE"
	TxBet          TransactionKind = "BET"
	TxRefund       TransactionKind = "REFUND"
	TxCreationCost TransactionKind = "CREATION_COST"
	TxReward       TransactionKind = "REWARD"
)

// Debit reports whether the kind subtracts from a wallet balance.
func (k TransactionKind) Debit() bool {
	return k == TxEntryFee || k == TxBet || k == TxCreationCost
}
