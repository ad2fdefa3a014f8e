package services

import (
	"errors"
	"fmt"

	"github.com/chaesueryong/badminton-sub001/models"
	"github.com/gofiber/fiber/v2"
)

// ValidationError covers malformed input: bad enum values, mismatched
// bet configuration, wrong password format, wrong discipline arity.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError covers missing sessions, invitations and wallets.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// AuthorizationError covers the wrong actor performing an action
// (non-creator completing, invitee cancelling, ...).
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string { return e.Reason }

// StateConflictError covers operations against an entity that is not in
// the required state: full session, duplicate join, terminal session,
// expired invitation. Current lets the client refresh.
type StateConflictError struct {
	Reason  string
	Current string
}

func (e *StateConflictError) Error() string {
	if e.Current != "" {
		return fmt.Sprintf("%s (current state: %s)", e.Reason, e.Current)
	}
	return e.Reason
}

// InsufficientFundsError reports which currency fell short and by how
// much, so the client can render a useful message.
type InsufficientFundsError struct {
	Currency  models.CurrencyType
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s: need %d, have %d", e.Currency, e.Required, e.Available)
}

func (e *InsufficientFundsError) Shortfall() int64 { return e.Required - e.Available }

// respondError maps the service error taxonomy onto HTTP responses.
// Anything untyped is a 500.
func respondError(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Reason})
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": nf.Error()})
	}
	var ae *AuthorizationError
	if errors.As(err, &ae) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": ae.Reason})
	}
	var sc *StateConflictError
	if errors.As(err, &sc) {
		resp := fiber.Map{"error": sc.Reason}
		if sc.Current != "" {
			resp["current_state"] = sc.Current
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	var inf *InsufficientFundsError
	if errors.As(err, &inf) {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":     inf.Error(),
			"currency":  inf.Currency,
			"shortfall": inf.Shortfall(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
