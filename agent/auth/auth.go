package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
)

// Fixed user-facing messages surfaced when a permission check fails.
const (
	msgAdminOnly      = "This action requires an administrator role."
	msgCompetitorRole = "You do not have permission to modify competitors. Ask an admin or expert to make this change."
	msgProductRole    = "You do not have permission to update product prices. Ask an admin or expert to make this change."
	msgEmailRole      = "You do not have permission to send emails. Ask an admin or expert to send this for you."
)

// Resolve returns the acting identity from the session provider.
// A missing session or provider failure never escalates: the caller
// proceeds as an anonymous USER.
func Resolve(ctx context.Context, provider contractx.SessionProvider) contractx.Session {
	if provider == nil {
		return contractx.AnonymousSession()
	}
	session, err := provider.Resolve(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("session resolution failed, continuing as anonymous user")
		return contractx.AnonymousSession()
	}
	if session == nil {
		return contractx.AnonymousSession()
	}
	if session.Role == "" {
		session.Role = contractx.RoleUser
	}
	if session.UserID == "" {
		session.UserID = "anonymous"
	}
	return *session
}

func IsAdmin(role contractx.Role) bool {
	return role == contractx.RoleAdmin
}

// CanModifyCompetitor accepts a competitor id for future ownership
// scoping; the id currently does not narrow the check.
func CanModifyCompetitor(role contractx.Role, competitorID string) bool {
	_ = competitorID
	return role == contractx.RoleAdmin || role == contractx.RoleExpert
}

func CanModifyProducts(role contractx.Role) bool {
	return role == contractx.RoleAdmin || role == contractx.RoleExpert
}

func CanSendEmails(role contractx.Role) bool {
	return role == contractx.RoleAdmin || role == contractx.RoleExpert
}

func RequireAdmin(role contractx.Role) error {
	if !IsAdmin(role) {
		return fmt.Errorf("%w: %s", contractx.ErrPermission, msgAdminOnly)
	}
	return nil
}

func RequireCompetitorAccess(role contractx.Role, competitorID string) error {
	if !CanModifyCompetitor(role, competitorID) {
		return fmt.Errorf("%w: %s", contractx.ErrPermission, msgCompetitorRole)
	}
	return nil
}

func RequireProductAccess(role contractx.Role) error {
	if !CanModifyProducts(role) {
		return fmt.Errorf("%w: %s", contractx.ErrPermission, msgProductRole)
	}
	return nil
}

func RequireEmailAccess(role contractx.Role) error {
	if !CanSendEmails(role) {
		return fmt.Errorf("%w: %s", contractx.ErrPermission, msgEmailRole)
	}
	return nil
}
