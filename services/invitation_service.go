package services

import (
	"errors"
	"log"
	"time"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationService runs the small invitation state machine layered on
// pending sessions. Accepting an invitation never seats or charges the
// invitee; joining stays a separate, explicit call.
type InvitationService struct {
	DB *gorm.DB
}

func NewInvitationService(db *gorm.DB) *InvitationService {
	return &InvitationService{DB: db}
}

// InvitationTTL is how long an invitation stays answerable.
const InvitationTTL = 24 * time.Hour

func (s *InvitationService) invite(sessionID, inviterID, inviteeID string, team int, message string) (*models.MatchInvitation, error) {
	if team != 1 && team != 2 {
		return nil, validationf("team must be 1 or 2")
	}
	if inviterID == inviteeID {
		return nil, validationf("cannot invite yourself")
	}

	var invitation *models.MatchInvitation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var session models.MatchSession
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "session"}
			}
			return err
		}
		if session.Status != models.SessionStatusPending {
			return &StateConflictError{Reason: "session is not open for invitations", Current: string(session.Status)}
		}

		var inviterSeated int64
		if err := tx.Model(&models.MatchParticipant{}).
			Where("match_session_id = ? AND user_id = ?", sessionID, inviterID).
			Count(&inviterSeated).Error; err != nil {
			return err
		}
		if inviterSeated == 0 && session.CreatorID != inviterID {
			return &AuthorizationError{Reason: "only the creator or a participant may invite"}
		}

		var inviteeSeated int64
		if err := tx.Model(&models.MatchParticipant{}).
			Where("match_session_id = ? AND user_id = ?", sessionID, inviteeID).
			Count(&inviteeSeated).Error; err != nil {
			return err
		}
		if inviteeSeated > 0 {
			return &StateConflictError{Reason: "invitee already joined this session"}
		}

		invitee, err := loadWallet(tx, inviteeID)
		if err != nil {
			return err
		}
		if required := session.MatchType.RequiredGender(); required != "" && invitee.Gender != required {
			return validationf("%s sessions are restricted by gender", string(session.MatchType))
		}

		var pending int64
		if err := tx.Model(&models.MatchInvitation{}).
			Where("match_session_id = ? AND invitee_id = ? AND status = ?", sessionID, inviteeID, models.InvitationPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return &StateConflictError{Reason: "a pending invitation for this user already exists"}
		}

		invitation = &models.MatchInvitation{
			ID:             uuid.NewString(),
			MatchSessionID: sessionID,
			InviterID:      inviterID,
			InviteeID:      inviteeID,
			Team:           team,
			Message:        message,
			Status:         models.InvitationPending,
			ExpiresAt:      time.Now().Add(InvitationTTL),
		}
		return tx.Create(invitation).Error
	})
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

func (s *InvitationService) respond(invitationID, actorID, action string) (*models.MatchInvitation, error) {
	var target models.InvitationStatus
	switch action {
	case "accept":
		target = models.InvitationAccepted
	case "decline":
		target = models.InvitationDeclined
	case "cancel":
		target = models.InvitationCancelled
	default:
		return nil, validationf("action must be accept, decline or cancel")
	}

	var invitation models.MatchInvitation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&invitation, "id = ?", invitationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "invitation"}
			}
			return err
		}

		if action == "cancel" {
			if invitation.InviterID != actorID {
				return &AuthorizationError{Reason: "only the inviter may cancel an invitation"}
			}
		} else if invitation.InviteeID != actorID {
			return &AuthorizationError{Reason: "only the invitee may respond to an invitation"}
		}

		if invitation.Status != models.InvitationPending {
			return &StateConflictError{Reason: "invitation is already answered", Current: string(invitation.Status)}
		}
		now := time.Now()
		if invitation.Expired(now) {
			return &StateConflictError{Reason: "invitation has expired", Current: string(invitation.Status)}
		}

		var session models.MatchSession
		if err := tx.First(&session, "id = ?", invitation.MatchSessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &StateConflictError{Reason: "session is no longer available"}
			}
			return err
		}
		if session.Status != models.SessionStatusPending {
			return &StateConflictError{Reason: "session is no longer available", Current: string(session.Status)}
		}

		// Guard the PENDING precondition against a concurrent response.
		res := tx.Model(&models.MatchInvitation{}).
			Where("id = ? AND status = ?", invitationID, models.InvitationPending).
			Update("status", target)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &StateConflictError{Reason: "invitation is already answered"}
		}
		invitation.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// SweepExpired cancels stale pending invitations. Hygiene only: the
// respond path checks expires_at on its own.
func (s *InvitationService) SweepExpired() (int64, error) {
	res := s.DB.Model(&models.MatchInvitation{}).
		Where("status = ? AND expires_at < ?", models.InvitationPending, time.Now()).
		Update("status", models.InvitationCancelled)
	return res.RowsAffected, res.Error
}

// --- HTTP handlers ---

func (s *InvitationService) InviteToSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	sessionID := c.Params("id")

	var req struct {
		InviteeID string `json:"invitee_id"`
		Team      int    `json:"team"`
		Message   string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.InviteeID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "invitee_id is required"})
	}

	invitation, err := s.invite(sessionID, userID, req.InviteeID, req.Team, req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(invitation)
}

func (s *InvitationService) RespondToInvitation(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Action string `json:"action"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	invitation, err := s.respond(c.Params("id"), userID, req.Action)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invitation)
}

func (s *InvitationService) GetMyInvitations(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var invitations []models.MatchInvitation
	if err := s.DB.
		Where("invitee_id = ? AND status = ? AND expires_at > ?", userID, models.InvitationPending, time.Now()).
		Order("created_at DESC").
		Find(&invitations).Error; err != nil {
		log.Printf("ERROR fetching invitations for user %s: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch invitations"})
	}
	return c.JSON(fiber.Map{"invitations": invitations})
}
