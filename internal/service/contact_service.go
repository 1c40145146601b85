package service

import (
	"context"

	"github.com/mansoorceksport/bluefin/internal/domain"
)

// ContactService reads and edits the company contact singleton
type ContactService struct {
	contactRepo domain.ContactRepository
}

func NewContactService(contactRepo domain.ContactRepository) *ContactService {
	return &ContactService{contactRepo: contactRepo}
}

// Get returns the contact details, creating the defaults on first access
func (s *ContactService) Get(ctx context.Context) (*domain.Contact, error) {
	return s.contactRepo.GetOrCreate(ctx)
}

// Update applies the recognised fields of body and ignores the rest
func (s *ContactService) Update(ctx context.Context, body map[string]interface{}) (*domain.Contact, error) {
	updates, err := domain.ContactUpdates(body)
	if err != nil {
		return nil, err
	}
	return s.contactRepo.Update(ctx, updates)
}
