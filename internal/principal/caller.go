package principal

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const callerKey = "caller"

// Caller is the request-scoped identity every service operation receives.
// Registered is false when the token subject has no profile yet.
type Caller struct {
	ID            uuid.UUID
	AccountStatus models.AccountStatus
	Role          models.Role
	Registered    bool
}

// Anonymous is the caller for unauthenticated requests.
func Anonymous() Caller {
	return Caller{}
}

// Operator is the caller for requests authenticated with the ops token. It
// has no profile row; audit entries record the nil id as the actor.
func Operator() Caller {
	return Caller{AccountStatus: models.AccountApproved, Role: models.RoleAdmin, Registered: true}
}

// FromProfile builds the caller for a registered member.
func FromProfile(p models.Profile) Caller {
	return Caller{ID: p.ID, AccountStatus: p.AccountStatus, Role: p.Role, Registered: true}
}

func (c Caller) Approved() bool {
	return c.Registered && c.AccountStatus == models.AccountApproved
}

// Member is any registered caller who is not suspended or banned.
func (c Caller) Member() bool {
	return c.Registered && !c.AccountStatus.Blocked()
}

// Author reports whether the caller can put content under its own id. The
// ops-token operator has no id and never can.
func (c Caller) Author() bool {
	return c.Approved() && c.ID != uuid.Nil
}

func (c Caller) Moderator() bool {
	return c.Approved() && (c.Role == models.RoleModerator || c.Role == models.RoleAdmin)
}

func (c Caller) Admin() bool {
	return c.Approved() && c.Role == models.RoleAdmin
}

// SetCaller stores the caller in Fiber locals.
func SetCaller(c *fiber.Ctx, caller Caller) {
	c.Locals(callerKey, caller)
}

// FromCtx returns the caller stored by SetCaller, or Anonymous.
func FromCtx(c *fiber.Ctx) Caller {
	if caller, ok := c.Locals(callerKey).(Caller); ok {
		return caller
	}
	return Anonymous()
}

// SubjectFromToken extracts the identity provider subject from the JWT the
// auth middleware left in context.
func SubjectFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// EmailFromToken returns the optional email claim.
func EmailFromToken(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return ""
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		email, _ := claims["email"].(string)
		return email
	}
	return ""
}
