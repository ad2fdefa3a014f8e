// services/player_search.go
package services

import (
	"strconv"
	"strings"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/gofiber/fiber/v2"
)

// SearchPlayers searches the local wallet mirror by username so a
// session creator can find someone to invite.
func (s *SessionService) SearchPlayers(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	db := s.DB.Model(&models.UserWallet{}).Limit(limit)

	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where("LOWER(username) LIKE ?", searchTerm)
	}
	if region := c.Query("region"); region != "" {
		db = db.Where("region = ?", region)
	}

	var wallets []models.UserWallet
	if err := db.Order("username ASC").Find(&wallets).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "search failed", "details": err.Error()})
	}

	// Balances stay private; expose identity fields only.
	type PlayerSummary struct {
		UserID   string        `json:"user_id"`
		Username string        `json:"username"`
		Gender   models.Gender `json:"gender"`
		Region   string        `json:"region,omitempty"`
		IsVip    bool          `json:"is_vip"`
	}

	res := make([]PlayerSummary, len(wallets))
	for i, w := range wallets {
		res[i] = PlayerSummary{
			UserID:   w.UserID,
			Username: w.Username,
			Gender:   w.Gender,
			Region:   w.Region,
			IsVip:    w.IsVip,
		}
	}

	return c.JSON(res)
}
