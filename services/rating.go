package services

import (
	"math"

	"github.com/chaesueryong/badminton-sub001/models"
)

// Elo-style rating math for the five badminton disciplines. Pure
// functions; persistence of the resulting changes happens at session
// completion.

// PlayerRating is the rating-track input for one participant.
type PlayerRating struct {
	UserID      string
	Rating      int
	GamesPlayed int
}

// RatingChange is one participant's settled rating movement.
type RatingChange struct {
	UserID string `json:"user_id"`
	Before int    `json:"before"`
	After  int    `json:"after"`
	Delta  int    `json:"delta"`
	Won    bool   `json:"won"`
}

// ExpectedScore is the standard Elo expectation for a against b.
// ExpectedScore(a,b) + ExpectedScore(b,a) == 1 for any pair.
func ExpectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

// SelectK picks the maximum rating swing: new players move fast,
// established high-rated players move slowly.
func SelectK(rating, gamesPlayed int) int {
	switch {
	case gamesPlayed < 30:
		return 40
	case rating > 2400:
		return 16
	case rating > 2000:
		return 24
	default:
		return 32
	}
}

// UpdateRatings computes the rating movement for every participant.
//
// Singles is two-player Elo with each player's own K. Doubles rates the
// two team averages against each other, shares one K (the unweighted
// average of the two sides' K-factors) and gives every member of a team
// the identical team-level delta.
func UpdateRatings(matchType models.MatchType, team1, team2 []PlayerRating, result models.MatchResult) []RatingChange {
	team1Won := result.WinningTeam() == 1

	if !matchType.IsDoubles() {
		a, b := team1[0], team2[0]
		expA := ExpectedScore(float64(a.Rating), float64(b.Rating))
		scoreA, scoreB := 0.0, 1.0
		if team1Won {
			scoreA, scoreB = 1.0, 0.0
		}
		deltaA := int(math.Round(float64(SelectK(a.Rating, a.GamesPlayed)) * (scoreA - expA)))
		deltaB := int(math.Round(float64(SelectK(b.Rating, b.GamesPlayed)) * (scoreB - (1 - expA))))
		return []RatingChange{
			{UserID: a.UserID, Before: a.Rating, After: a.Rating + deltaA, Delta: deltaA, Won: team1Won},
			{UserID: b.UserID, Before: b.Rating, After: b.Rating + deltaB, Delta: deltaB, Won: !team1Won},
		}
	}

	avg1, games1 := teamAverage(team1)
	avg2, games2 := teamAverage(team2)

	// One side's K is selected from its average rating and experience;
	// the match K is the unweighted average of the two sides' K-factors.
	k1 := SelectK(int(math.Round(avg1)), games1)
	k2 := SelectK(int(math.Round(avg2)), games2)
	k := float64(k1+k2) / 2

	exp1 := ExpectedScore(avg1, avg2)
	score1 := 0.0
	if team1Won {
		score1 = 1.0
	}
	delta1 := int(math.Round(k * (score1 - exp1)))
	delta2 := int(math.Round(k * ((1 - score1) - (1 - exp1))))

	changes := make([]RatingChange, 0, len(team1)+len(team2))
	for _, p := range team1 {
		changes = append(changes, RatingChange{
			UserID: p.UserID, Before: p.Rating, After: p.Rating + delta1, Delta: delta1, Won: team1Won,
		})
	}
	for _, p := range team2 {
		changes = append(changes, RatingChange{
			UserID: p.UserID, Before: p.Rating, After: p.Rating + delta2, Delta: delta2, Won: !team1Won,
		})
	}
	return changes
}

// teamAverage returns the mean rating and mean games played of a team.
func teamAverage(team []PlayerRating) (float64, int) {
	var ratingSum, gamesSum int
	for _, p := range team {
		ratingSum += p.Rating
		gamesSum += p.GamesPlayed
	}
	return float64(ratingSum) / float64(len(team)), gamesSum / len(team)
}
