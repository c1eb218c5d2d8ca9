package auth

import "invoice-backend/internal/models"

// Tier is an authorization level. Higher tiers include the lower ones.
type Tier int

const (
	TierAnonymous Tier = iota
	TierActiveUser
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierActiveUser:
		return "active"
	case TierAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// TierOf returns the tier of user. A nil or inactive user is anonymous.
func TierOf(user *models.User) Tier {
	switch {
	case user == nil || !user.IsActive:
		return TierAnonymous
	case user.IsAdmin:
		return TierAdmin
	default:
		return TierActiveUser
	}
}

// Allows reports whether t satisfies required.
func (t Tier) Allows(required Tier) bool {
	return t >= required
}
