package services

import (
	"log"
	"math"
	"strconv"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/chaesueryong/badminton-sub001/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LeaderboardService is the read side over settled rating state. It
// never writes anything.
type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank        int     `json:"rank" gorm:"-"`
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	Region      string  `json:"region,omitempty"`
	Rating      int     `json:"rating"`
	PeakRating  int     `json:"peak_rating"`
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"win_rate" gorm:"-"`
}

// GetLeaderboard ranks one discipline, or "ALL" for the cross-discipline
// view ranked by each player's best discipline rating. Rank is strictly
// positional; ties break on user_id for stable pagination.
func (s *LeaderboardService) GetLeaderboard(discipline string, region string, limit, offset int) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	var err error

	if discipline == "ALL" {
		query := `
        SELECT
            r.user_id,
            w.username,
            w.region,
            MAX(r.rating) as rating,
            MAX(r.peak_rating) as peak_rating,
            SUM(r.games_played) as games_played,
            SUM(r.wins) as wins
        FROM rating_records r
        JOIN user_wallets w ON w.user_id = r.user_id
        WHERE w.deleted_at IS NULL` + regionClause(region) + `
        GROUP BY r.user_id, w.username, w.region
        HAVING SUM(r.games_played) > 0
        ORDER BY rating DESC, r.user_id ASC
        LIMIT ? OFFSET ?`
		err = s.DB.Raw(query, regionArgs(region, limit, offset)...).Scan(&entries).Error
	} else {
		query := `
        SELECT
            r.user_id,
            w.username,
            w.region,
            r.rating,
            r.peak_rating,
            r.games_played,
            r.wins
        FROM rating_records r
        JOIN user_wallets w ON w.user_id = r.user_id
        WHERE w.deleted_at IS NULL AND r.discipline = ? AND r.games_played > 0` + regionClause(region) + `
        ORDER BY r.rating DESC, r.user_id ASC
        LIMIT ? OFFSET ?`
		args := append([]interface{}{discipline}, regionArgs(region, limit, offset)...)
		err = s.DB.Raw(query, args...).Scan(&entries).Error
	}
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].Rank = offset + i + 1
		entries[i].WinRate = winRate(entries[i].Wins, entries[i].GamesPlayed)
	}
	return entries, nil
}

func regionClause(region string) string {
	if region == "" {
		return ""
	}
	return " AND w.region = ?"
}

func regionArgs(region string, limit, offset int) []interface{} {
	if region == "" {
		return []interface{}{limit, offset}
	}
	return []interface{}{region, limit, offset}
}

// winRate is wins/games as a percentage with one decimal, 0.0 for an
// empty record.
func winRate(wins, games int) float64 {
	if games == 0 {
		return 0.0
	}
	return math.Round(float64(wins)/float64(games)*1000) / 10
}

// RatingSummary is one discipline track in a player's rating overview.
// Unplayed disciplines report the default rating.
type RatingSummary struct {
	Discipline  models.MatchType `json:"discipline"`
	Rating      int              `json:"rating"`
	PeakRating  int              `json:"peak_rating"`
	GamesPlayed int              `json:"games_played"`
	Wins        int              `json:"wins"`
	WinRate     float64          `json:"win_rate"`
}

// GetRatingSummary returns one entry per discipline, in leaderboard
// order, whether or not the player has a record there yet.
func (s *LeaderboardService) GetRatingSummary(userID string) ([]RatingSummary, error) {
	var records []models.RatingRecord
	if err := s.DB.Where("user_id = ?", userID).Find(&records).Error; err != nil {
		return nil, err
	}
	byDiscipline := map[models.MatchType]models.RatingRecord{}
	for _, r := range records {
		byDiscipline[r.Discipline] = r
	}

	out := make([]RatingSummary, 0, len(models.AllMatchTypes))
	for _, discipline := range models.AllMatchTypes {
		summary := RatingSummary{
			Discipline: discipline,
			Rating:     models.DefaultRating,
			PeakRating: models.DefaultRating,
		}
		if r, ok := byDiscipline[discipline]; ok {
			summary.Rating = r.Rating
			summary.PeakRating = r.PeakRating
			summary.GamesPlayed = r.GamesPlayed
			summary.Wins = r.Wins
			summary.WinRate = winRate(r.Wins, r.GamesPlayed)
		}
		out = append(out, summary)
	}
	return out, nil
}

// --- HTTP handlers ---

func (s *LeaderboardService) GetLeaderboardHandler(c *fiber.Ctx) error {
	discipline := c.Params("discipline")
	if discipline != "ALL" && !models.MatchType(discipline).Valid() {
		return c.Status(400).JSON(fiber.Map{"error": "discipline must be one of MS, WS, MD, WD, XD or ALL"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	region := ""
	if raw := c.Query("region"); raw != "" {
		region = utils.NormalizeRegion(raw)
	}

	entries, err := s.GetLeaderboard(discipline, region, limit, offset)
	if err != nil {
		log.Printf("ERROR building %s leaderboard: %v", discipline, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to build leaderboard"})
	}

	resp := fiber.Map{
		"discipline": discipline,
		"entries":    entries,
		"limit":      limit,
		"offset":     offset,
	}
	if region != "" {
		resp["region"] = region
		resp["region_label"] = utils.DisplayRegion(region)
	}
	return c.JSON(resp)
}

func (s *LeaderboardService) GetMyRatingsHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	summaries, err := s.GetRatingSummary(userID)
	if err != nil {
		log.Printf("ERROR building rating summary for %s: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to load ratings"})
	}
	return c.JSON(fiber.Map{"ratings": summaries})
}
