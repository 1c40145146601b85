package service

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/mansoorceksport/bluefin/internal/domain"
)

// ErrInvalidIdentity is returned when the identity token cannot be verified
var ErrInvalidIdentity = errors.New("invalid identity token")

// FirebaseAuthClient defines the interface for Firebase Auth operations
// This allows mocking for tests
type FirebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthService handles authentication and user registration
type AuthService struct {
	userRepo   domain.UserRepository
	authClient FirebaseAuthClient
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo domain.UserRepository, authClient FirebaseAuthClient) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		authClient: authClient,
	}
}

// LoginOrRegisterResponse contains the user and whether they were newly created
type LoginOrRegisterResponse struct {
	User      *domain.User
	IsNewUser bool
}

// LoginOrRegister verifies the Firebase ID token and resolves it to a portal
// user, linking pre-provisioned accounts by email and registering unknown
// identities with the user role
func (s *AuthService) LoginOrRegister(ctx context.Context, firebaseToken string) (*LoginOrRegisterResponse, error) {
	if s.authClient == nil {
		return nil, fmt.Errorf("%w: identity provider not configured", ErrInvalidIdentity)
	}

	token, err := s.authClient.VerifyIDToken(ctx, firebaseToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: token has no email", ErrInvalidIdentity)
	}
	name, _ := token.Claims["name"].(string)
	if name == "" {
		name = email
	}

	existingUser, err := s.userRepo.GetByFirebaseUID(ctx, firebaseUID)
	if err == nil {
		return &LoginOrRegisterResponse{User: existingUser}, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	// Pre-provisioned accounts (seeded admins) are matched by email
	emailUser, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if emailUser.FirebaseUID != "" {
			return nil, fmt.Errorf("%w: email already linked to different account", ErrInvalidIdentity)
		}
		if err := s.userRepo.UpdateFirebaseUID(ctx, emailUser.ID, firebaseUID); err != nil {
			return nil, fmt.Errorf("failed to link firebase account: %w", err)
		}
		emailUser.FirebaseUID = firebaseUID
		return &LoginOrRegisterResponse{User: emailUser}, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	// New users always start with the user role. Admins are provisioned by the seed CLI.
	newUser := &domain.User{
		FirebaseUID: firebaseUID,
		Email:       email,
		Name:        name,
		Role:        domain.RoleUser,
	}
	if phone, ok := token.Claims["phone_number"].(string); ok {
		newUser.Phone = phone
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &LoginOrRegisterResponse{User: newUser, IsNewUser: true}, nil
}
