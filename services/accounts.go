package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"civicreport-be/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileUpdate carries a resident's own changes. Blank values are ignored.
type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// UserUpdate is an admin edit of a user account.
type UserUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"is_active"`
}

type UserDetail struct {
	models.User
	IssueCount   int64 `json:"issue_count"`
	CommentCount int64 `json:"comment_count"`
}

// Profile is whoever is behind a principal. Exactly one field is set.
type Profile struct {
	User  *models.User
	Admin *models.Admin
}

// AccountService handles sign-up, sign-in and account administration.
type AccountService struct {
	store  UserStore
	admins AdminFinder
	now    func() time.Time
}

func NewAccountService(store UserStore, admins AdminFinder) *AccountService {
	return &AccountService{store: store, admins: admins, now: time.Now}
}

func checkName(value, label string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < 2 {
		return validationError("%s must be at least 2 characters long", label)
	}
	if n > 50 {
		return validationError("%s must be less than 50 characters", label)
	}
	return nil
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return s != "" && validate.Var(s, "email") == nil
}

// ValidPassword requires eight characters with at least one letter and one digit.
func ValidPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

func (in Registration) Validate() error {
	if err := checkName(in.FirstName, "First name"); err != nil {
		return err
	}
	if err := checkName(in.LastName, "Last name"); err != nil {
		return err
	}
	if !ValidEmail(strings.TrimSpace(in.Email)) {
		return validationError("Invalid email format")
	}
	if !ValidPassword(in.Password) {
		return validationError("Password must be at least 8 characters long and contain letters and numbers")
	}
	return nil
}

// Register creates an active resident account.
func (s *AccountService) Register(ctx context.Context, in Registration) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  in.Password,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      models.RoleResident,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		slog.Error("failed to hash password", "error", err)
		return nil, internalError("Registration failed")
	}

	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := s.store.FindUserByEmail(ctx, user.Email)
		switch {
		case err == nil:
			return validationError("Email already registered")
		case !errors.Is(err, models.ErrRecordNotFound):
			return err
		}
		return s.store.InsertUser(ctx, user)
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, validationError("Email already registered")
		}
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error("failed to register user", "error", err)
		}
		return nil, passThrough(err, internalError("Registration failed"))
	}
	return user, nil
}

// Login checks a resident's credentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, validationError("Email and password are required")
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, unauthorized("Invalid email or password")
		}
		slog.Error("failed to load user for login", "error", err)
		return nil, internalError("Login failed")
	}
	if !user.ComparePassword(password) {
		return nil, unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return nil, unauthorized("Account is deactivated")
	}
	return user, nil
}

func (s *AccountService) AdminLogin(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, validationError("Username and password are required")
	}
	admin, err := s.store.FindAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, unauthorized("Invalid username or password")
		}
		slog.Error("failed to load admin for login", "error", err)
		return nil, internalError("Internal server error")
	}
	if !admin.ComparePassword(password) {
		return nil, unauthorized("Invalid username or password")
	}
	return admin, nil
}

// Me returns the account behind the principal.
func (s *AccountService) Me(ctx context.Context, p Principal) (*Profile, error) {
	if p.Kind == PrincipalAdmin {
		admin, err := s.admins.FindAdmin(ctx, p.ID)
		if err != nil {
			return nil, lookupFailure(err)
		}
		return &Profile{Admin: admin}, nil
	}
	user, err := s.store.FindUser(ctx, p.ID)
	if err != nil {
		return nil, lookupFailure(err)
	}
	return &Profile{User: user}, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, p Principal, in ProfileUpdate) (*models.User, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	return s.editUser(ctx, p.ID, "Failed to update profile", func(u *models.User) error {
		return applyNames(u, in.FirstName, in.LastName)
	})
}

func applyNames(u *models.User, first, last *string) error {
	if v := nonBlank(first); v != nil {
		if err := checkName(*v, "First name"); err != nil {
			return err
		}
		u.FirstName = *v
	}
	if v := nonBlank(last); v != nil {
		if err := checkName(*v, "Last name"); err != nil {
			return err
		}
		u.LastName = *v
	}
	return nil
}

// ListUsers returns users newest first.
func (s *AccountService) ListUsers(ctx context.Context, p Principal, filter models.UserFilter, page models.Page) ([]models.User, models.Pagination, error) {
	if err := requireAdmin(p); err != nil {
		return nil, models.Pagination{}, err
	}
	users, total, err := s.store.ListUsers(ctx, filter, page)
	if err != nil {
		slog.Error("failed to fetch users", "error", err)
		return nil, models.Pagination{}, internalError("Failed to fetch users")
	}
	return users, models.NewPagination(page, total), nil
}

func (s *AccountService) GetUser(ctx context.Context, p Principal, id int64) (*UserDetail, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	user, err := s.store.FindUser(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, notFound("User not found")
		}
		slog.Error("failed to fetch user", "error", err, "user_id", id)
		return nil, internalError("Failed to fetch user")
	}
	d := &UserDetail{User: *user}
	if d.IssueCount, err = s.store.CountIssues(ctx, models.IssueFilter{ReporterID: id}); err != nil {
		slog.Error("failed to count user issues", "error", err, "user_id", id)
		return nil, internalError("Failed to fetch user")
	}
	if d.CommentCount, err = s.store.CountComments(ctx, models.CommentFilter{AuthorID: id}); err != nil {
		slog.Error("failed to count user comments", "error", err, "user_id", id)
		return nil, internalError("Failed to fetch user")
	}
	return d, nil
}

func (s *AccountService) UpdateUser(ctx context.Context, p Principal, id int64, in UserUpdate) (*models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	role := nonBlank(in.Role)
	if role != nil && *role != models.RoleResident && *role != models.RoleAdmin {
		return nil, validationError("Invalid role")
	}
	return s.editUser(ctx, id, "Failed to update user", func(u *models.User) error {
		if err := applyNames(u, in.FirstName, in.LastName); err != nil {
			return err
		}
		if role != nil {
			u.Role = *role
		}
		if in.IsActive != nil {
			u.IsActive = *in.IsActive
		}
		return nil
	})
}

// DeleteUser removes a resident together with their issues, comments and
// upvotes. Users with the admin role are protected.
func (s *AccountService) DeleteUser(ctx context.Context, p Principal, id int64) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		user, err := s.store.FindUser(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				return notFound("User not found")
			}
			return err
		}
		if user.IsAdmin() {
			return validationError("Cannot delete admin user")
		}
		return s.store.DeleteUser(ctx, id)
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error("failed to delete user", "error", err, "user_id", id)
		}
		return passThrough(err, internalError("Failed to delete user"))
	}
	return nil
}

func (s *AccountService) editUser(ctx context.Context, id int64, failure string, apply func(*models.User) error) (*models.User, error) {
	var saved *models.User
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		user, err := s.store.FindUser(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrRecordNotFound) {
				return notFound("User not found")
			}
			return err
		}
		if err := apply(user); err != nil {
			return err
		}
		user.UpdatedAt = s.now().UTC()
		if err := s.store.SaveUser(ctx, user); err != nil {
			return err
		}
		saved = user
		return nil
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			slog.Error(failure, "error", err, "user_id", id)
		}
		return nil, passThrough(err, internalError(failure))
	}
	return saved, nil
}
