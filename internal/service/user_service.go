package service

import (
	"context"

	"github.com/mansoorceksport/bluefin/internal/domain"
	"golang.org/x/sync/errgroup"
)

// UserService backs the current-user and admin user views
type UserService struct {
	userRepo    domain.UserRepository
	paymentRepo domain.PaymentRepository
	planRepo    domain.PlanRepository
}

func NewUserService(userRepo domain.UserRepository, paymentRepo domain.PaymentRepository, planRepo domain.PlanRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		planRepo:    planRepo,
	}
}

// UserProfile is a user with the plan behind their active plan reference
type UserProfile struct {
	*domain.User
	Plan *domain.Plan `json:"plan,omitempty"`
}

// UserDetail is the admin view of one customer
type UserDetail struct {
	*domain.User
	Plan     *domain.Plan      `json:"plan,omitempty"`
	Payments []*domain.Payment `json:"payments"`
}

// Me returns the caller with their active plan resolved
func (s *UserService) Me(ctx context.Context, userID string) (*UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.activePlan(ctx, user)
	if err != nil {
		return nil, err
	}
	return &UserProfile{User: user, Plan: plan}, nil
}

func (s *UserService) activePlan(ctx context.Context, user *domain.User) (*domain.Plan, error) {
	if user.ActivePlan == nil || user.ActivePlan.PlanID == "" {
		return nil, nil
	}
	plan, err := s.planRepo.GetByID(ctx, user.ActivePlan.PlanID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

// ListCustomers returns accounts with the user role, newest first
func (s *UserService) ListCustomers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.GetByRole(ctx, domain.RoleUser)
}

// Detail loads a user and their payment history concurrently
func (s *UserService) Detail(ctx context.Context, userID string) (*UserDetail, error) {
	var (
		user     *domain.User
		payments []*domain.Payment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.userRepo.GetByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.paymentRepo.GetByUserID(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan, err := s.activePlan(ctx, user)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: user, Plan: plan, Payments: payments}, nil
}
