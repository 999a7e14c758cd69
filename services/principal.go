package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"civicreport-be/models"
)

type PrincipalKind int

const (
	PrincipalResident PrincipalKind = iota
	PrincipalAdmin
)

type Capability string

const (
	CapResident Capability = "RESIDENT"
	CapAdmin    Capability = "ADMIN"
)

const adminIdentityPrefix = "admin:"

// Principal is the identity behind one request. Resolved once, then passed
// explicitly to every operation that needs authorization.
type Principal struct {
	Kind PrincipalKind
	ID   int64
	Role string
}

// Capabilities is {RESIDENT} or {RESIDENT, ADMIN}. Owning issues, comments
// and upvotes additionally needs a User row, see IsUser.
func (p Principal) Capabilities() []Capability {
	if p.Kind == PrincipalAdmin || p.Role == models.RoleAdmin {
		return []Capability{CapResident, CapAdmin}
	}
	return []Capability{CapResident}
}

func (p Principal) Can(c Capability) bool {
	for _, have := range p.Capabilities() {
		if have == c {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool {
	return p.Can(CapAdmin)
}

// IsUser reports whether the principal is backed by a User row and can own
// issues, comments and upvotes.
func (p Principal) IsUser() bool {
	return p.Kind == PrincipalResident
}

// AdminIdentity and UserIdentity build the token subjects understood by Resolve.
func AdminIdentity(id int64) string {
	return adminIdentityPrefix + strconv.FormatInt(id, 10)
}

func UserIdentity(id int64) string {
	return strconv.FormatInt(id, 10)
}

type AdminFinder interface {
	FindAdmin(ctx context.Context, id int64) (*models.Admin, error)
}

type UserFinder interface {
	FindUser(ctx context.Context, id int64) (*models.User, error)
}

type PrincipalResolver struct {
	admins AdminFinder
	users  UserFinder
}

func NewPrincipalResolver(admins AdminFinder, users UserFinder) *PrincipalResolver {
	return &PrincipalResolver{admins: admins, users: users}
}

// Resolve turns a validated token subject into a Principal.
func (r *PrincipalResolver) Resolve(ctx context.Context, identity string) (Principal, error) {
	if rest, ok := strings.CutPrefix(identity, adminIdentityPrefix); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return Principal{}, unauthorized("Invalid identity")
		}
		admin, err := r.admins.FindAdmin(ctx, id)
		if err != nil {
			return Principal{}, lookupFailure(err)
		}
		return Principal{Kind: PrincipalAdmin, ID: admin.ID}, nil
	}

	id, err := strconv.ParseInt(identity, 10, 64)
	if err != nil {
		return Principal{}, unauthorized("Invalid identity")
	}
	user, err := r.users.FindUser(ctx, id)
	if err != nil {
		return Principal{}, lookupFailure(err)
	}
	return Principal{Kind: PrincipalResident, ID: user.ID, Role: user.Role}, nil
}

func lookupFailure(err error) error {
	if errors.Is(err, models.ErrRecordNotFound) {
		return unauthorized("Identity not found")
	}
	return internalError("Failed to resolve identity")
}

// RequireUser fails with Forbidden unless p is backed by a User row.
func RequireUser(p Principal) error {
	return requireUser(p)
}

func requireAdmin(p Principal) error {
	if !p.IsAdmin() {
		return forbidden("Admin access required")
	}
	return nil
}

func requireUser(p Principal) error {
	if !p.IsUser() {
		return forbidden("Resident account required")
	}
	return nil
}
