package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dollmart/internal/models"
)

var (
	// ErrEmailTaken is returned when registering with an address that
	// already has an account.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords
	// so login failures don't leak which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned when a referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")

	ErrWeakPassword = errors.New("password must be at least 4 characters")
)

type DBLayer interface {
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
	UpdateUserType(ctx context.Context, userID int64, userType string) (int64, error)
	ListCustomers(ctx context.Context) ([]models.CustomerSummary, error)
}

type AuthService struct {
	DB     DBLayer
	Tokens *TokenIssuer
}

func NewAuthService(db DBLayer, tokens *TokenIssuer) *AuthService {
	return &AuthService{DB: db, Tokens: tokens}
}

// Register creates a customer account. Manager accounts are seeded at
// startup and can never be created through this path.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.FirstName == "" {
		return nil, errors.New("first name is required")
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, errors.New("a valid email is required")
	}
	if len(req.Password) < 4 {
		return nil, ErrWeakPassword
	}

	userType := req.UserType
	switch userType {
	case "":
		userType = models.UserTypeIndividual
	case models.UserTypeIndividual, models.UserTypeBulk:
	default:
		return nil, fmt.Errorf("unknown user type %q", req.UserType)
	}

	if _, err := s.DB.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%s: %w", req.Email, ErrEmailTaken)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user := &models.User{
		FirstName:        req.FirstName,
		Email:            req.Email,
		ContactNumber:    strings.TrimSpace(req.ContactNumber),
		Password:         HashPassword(req.Password),
		UserType:         userType,
		RegistrationDate: time.Now(),
	}
	if err := s.DB.InsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login checks credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.DB.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !CheckPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(user.UserID)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, User: user}, nil
}

// GetUser loads one account by ID.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.DB.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return user, nil
}

// UpdateUserType switches a customer between individual and bulk pricing.
// Manager accounts cannot be reclassified.
func (s *AuthService) UpdateUserType(ctx context.Context, userID int64, userType string) error {
	if userType != models.UserTypeIndividual && userType != models.UserTypeBulk {
		return fmt.Errorf("unknown user type %q", userType)
	}
	rows, err := s.DB.UpdateUserType(ctx, userID, userType)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}
	return nil
}

// ListCustomers is the manager view of every registered customer.
func (s *AuthService) ListCustomers(ctx context.Context) ([]models.CustomerSummary, error) {
	customers, err := s.DB.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}
