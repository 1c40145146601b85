package domain

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
)

// Plan is an internet plan offered in the catalog
type Plan struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	Speed       string    `bson:"speed" json:"speed"`       // e.g. "100 Mbps"
	Validity    int       `bson:"validity" json:"validity"` // days
	Price       float64   `bson:"price" json:"price"`
	Features    []string  `bson:"features" json:"features"`
	IsActive    bool      `bson:"is_active" json:"isActive"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// PlanInput carries the admin-editable plan fields
type PlanInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Speed       string   `json:"speed"`
	Validity    Days     `json:"validity"`
	Price       float64  `json:"price"`
	Features    []string `json:"features"`
	IsActive    *bool    `json:"isActive"`
}

// Days is a whole number of days as submitted by a client. It accepts a JSON
// number or a numeric string; fractional or malformed values decode to -1 so
// Validate reports them against the field instead of failing the whole body.
type Days int

const maxDays = 100 * 366

func (d *Days) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*d = 0
		return nil
	}
	raw = strings.TrimSpace(strings.Trim(raw, `"`))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxDays {
		*d = -1
		return nil
	}
	*d = Days(f)
	return nil
}

// Validate trims the input in place and checks field constraints
func (in *PlanInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Speed = strings.TrimSpace(in.Speed)

	verr := &ValidationError{}
	if in.Name == "" {
		verr.Add("name", "Plan name is required")
	}
	if in.Description == "" {
		verr.Add("description", "Description is required")
	}
	if in.Speed == "" {
		verr.Add("speed", "Speed is required")
	}
	if in.Validity < 1 {
		verr.Add("validity", "Validity must be a positive number")
	}
	if in.Price < 0 {
		verr.Add("price", "Price must be a positive number")
	}
	return verr.OrNil()
}

// Apply copies validated input onto plan
func (in *PlanInput) Apply(plan *Plan) {
	plan.Name = in.Name
	plan.Description = in.Description
	plan.Speed = in.Speed
	plan.Validity = int(in.Validity)
	plan.Price = in.Price
	plan.Features = in.Features
	if plan.Features == nil {
		plan.Features = []string{}
	}
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
}

// ActivationWindow returns the start and end of a plan activated at now
func (p *Plan) ActivationWindow(now time.Time) (time.Time, time.Time) {
	start := now.UTC()
	return start, start.AddDate(0, 0, p.Validity)
}

// PlanRepository defines operations for managing plans
type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id string) (*Plan, error)
	GetActive(ctx context.Context) ([]*Plan, error) // sorted by price ascending
	GetAll(ctx context.Context) ([]*Plan, error)    // newest first
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id string) error
}
