package service

import (
	"context"

	"github.com/mansoorceksport/bluefin/internal/domain"
)

// PlanService manages the internet plan catalog
type PlanService struct {
	planRepo domain.PlanRepository
}

func NewPlanService(planRepo domain.PlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

// ListActive returns the public catalog, cheapest first
func (s *PlanService) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	return s.planRepo.GetActive(ctx)
}

// Get returns a plan regardless of whether it is active
func (s *PlanService) Get(ctx context.Context, id string) (*domain.Plan, error) {
	return s.planRepo.GetByID(ctx, id)
}

// ListAll returns every plan, newest first
func (s *PlanService) ListAll(ctx context.Context) ([]*domain.Plan, error) {
	return s.planRepo.GetAll(ctx)
}

// Create validates the input and stores a new plan. Plans start active
// unless the input says otherwise.
func (s *PlanService) Create(ctx context.Context, input domain.PlanInput) (*domain.Plan, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	plan := &domain.Plan{IsActive: true}
	input.Apply(plan)

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Update replaces the editable fields of an existing plan
func (s *PlanService) Update(ctx context.Context, id string, input domain.PlanInput) (*domain.Plan, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.Apply(plan)

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes the plan. Existing payments and active plans keep the
// now dangling reference.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	return s.planRepo.Delete(ctx, id)
}
