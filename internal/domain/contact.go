package domain

import (
	"context"
	"time"
)

// ContactSingletonID is the fixed key of the only contact document
const ContactSingletonID = "contact"

// Contact holds the company display fields shown on the contact page
type Contact struct {
	CompanyName   string    `bson:"company_name" json:"companyName"`
	Phone         string    `bson:"phone" json:"phone"`
	Email         string    `bson:"email" json:"email"`
	Address       string    `bson:"address" json:"address"`
	Website       string    `bson:"website" json:"website"`
	BusinessHours string    `bson:"business_hours" json:"businessHours"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// DefaultContact returns the values a fresh contact document starts with
func DefaultContact() Contact {
	return Contact{
		CompanyName:   "BlueFin ISP",
		Phone:         "+1 (555) 123-4567",
		Email:         "support@bluefinisp.com",
		Address:       "123 Internet Street, City, State 12345",
		Website:       "www.bluefinisp.com",
		BusinessHours: "24/7",
	}
}

// contactFields maps request keys to storage fields. Anything else is ignored.
var contactFields = map[string]string{
	"companyName":   "company_name",
	"phone":         "phone",
	"email":         "email",
	"address":       "address",
	"website":       "website",
	"businessHours": "business_hours",
}

// ContactUpdates filters a request body down to the mutable contact fields,
// keyed by storage field name
func ContactUpdates(body map[string]interface{}) (map[string]string, error) {
	updates := make(map[string]string)
	verr := &ValidationError{}
	for key, value := range body {
		field, ok := contactFields[key]
		if !ok {
			continue
		}
		s, ok := value.(string)
		if !ok {
			verr.Add(key, "must be a string")
			continue
		}
		updates[field] = s
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return updates, nil
}

// ContactRepository manages the contact singleton
type ContactRepository interface {
	// GetOrCreate returns the singleton, inserting defaults on first access
	GetOrCreate(ctx context.Context) (*Contact, error)
	Update(ctx context.Context, updates map[string]string) (*Contact, error)
}
