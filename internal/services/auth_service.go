package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/pkg/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID  primitive.ObjectID
	Role    models.Role
	TokenID string
}

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, role models.Role, page, limit int) ([]models.User, int, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string, now time.Time) error
}

type tokenAllowlist interface {
	Create(ctx context.Context, tokenID, userID string) error
	Validate(ctx context.Context, tokenID string) (string, bool, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeUser(ctx context.Context, userID string) error
}

type AuthService struct {
	users  userStore
	tokens tokenAllowlist
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(users userStore, tokens tokenAllowlist, secret string) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		secret: secret,
		ttl:    AuthSessionDuration,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type SignupInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=20"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=client therapist"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	role := models.RoleClient
	if input.Role != "" {
		role = models.Role(input.Role)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		CreatedAt: now,
		UpdatedAt: now,
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Password:  hash,
		Role:      role,
		Status:    models.UserActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.issue(ctx, user)
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}

	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	tokenID := uuid.NewString()
	token, err := utils.GenerateToken(user.ID.Hex(), string(user.Role), tokenID, s.secret, s.ttl)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, tokenID, user.ID.Hex()); err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate verifies a bearer token's signature and that its id is still allowlisted.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := utils.ValidateToken(token, s.secret)
	if err != nil {
		return nil, ErrUnauthorized
	}
	userID, live, err := s.tokens.Validate(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !live || userID != claims.Subject {
		return nil, ErrUnauthorized
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrUnauthorized
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		return nil, ErrUnauthorized
	}
	return &Principal{UserID: id, Role: role, TokenID: claims.ID}, nil
}

func (s *AuthService) Signout(ctx context.Context, caller *Principal) error {
	return s.tokens.Revoke(ctx, caller.TokenID)
}

func (s *AuthService) Me(ctx context.Context, caller *Principal) (*models.User, error) {
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, role string, page, limit int) ([]models.User, int, error) {
	r := models.Role(role)
	if role != "" && !r.Valid() {
		return nil, 0, utils.NewValidationError("role", "role must be one of: client therapist admin")
	}
	return s.users.List(ctx, r, page, limit)
}

// ToggleUserStatus flips a user between active and inactive. Deactivation revokes every
// token of the user. Admin accounts cannot be deactivated.
func (s *AuthService) ToggleUserStatus(ctx context.Context, userID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, ErrForbidden
	}

	next := models.UserInactive
	if !user.IsActive() {
		next = models.UserActive
	}
	now := s.now()
	if err := s.users.SetStatus(ctx, id, next, now); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if next == models.UserInactive {
		if err := s.tokens.RevokeUser(ctx, user.ID.Hex()); err != nil {
			return nil, err
		}
	}

	user.Status = next
	user.UpdatedAt = now
	return user, nil
}
