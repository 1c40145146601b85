package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/mansoorceksport/bluefin/internal/middleware"
	"github.com/mansoorceksport/bluefin/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestRespondError(t *testing.T) {
	verr := &domain.ValidationError{}
	verr.Add("planId", "Plan ID is required")

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "plan not found", err: domain.ErrPlanNotFound, status: 404, message: "Plan not found"},
		{name: "wrapped ticket not found", err: fmt.Errorf("load: %w", domain.ErrTicketNotFound), status: 404, message: "Ticket not found"},
		{name: "generic not found", err: domain.ErrNotFound, status: 404, message: "Not found"},
		{name: "forbidden", err: domain.ErrForbidden, status: 403, message: "Access denied"},
		{name: "already decided", err: domain.ErrPaymentAlreadyDecided, status: 409, message: "Payment has already been reviewed"},
		{name: "lock busy", err: errors.Join(domain.ErrDecisionInProgress, context.Canceled), status: 409, message: "Another decision for this user is in progress, try again"},
		{name: "duplicate pending", err: domain.ErrDuplicatePendingPayment, status: 400, message: "You already have a pending payment for this plan"},
		{name: "ticket changed", err: fmt.Errorf("reply: %w", domain.ErrTicketChanged), status: 409, message: "Ticket was updated by someone else, try again"},
		{name: "reply required", err: domain.ErrReplyRequired, status: 400, message: "Cannot mark as resolved/closed without replying to the ticket first"},
		{name: "invalid priority", err: domain.ErrInvalidPriority, status: 400, message: "Invalid priority"},
		{name: "identity", err: fmt.Errorf("%w: expired", service.ErrInvalidIdentity), status: 401, message: "Invalid or expired identity token"},
		{name: "refresh", err: service.ErrInvalidRefreshToken, status: 401, message: "Invalid or expired refresh token"},
		{name: "unknown errors are hidden", err: errors.New("connection reset by peer"), status: 500, message: "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tt.err) })

			status, body := decode(t, app, fiber.MethodGet, "/", "")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body["message"])
		})
	}

	t.Run("validation", func(t *testing.T) {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return respondError(c, verr) })

		status, body := decode(t, app, fiber.MethodGet, "/", "")
		assert.Equal(t, 400, status)
		assert.Equal(t, []interface{}{map[string]interface{}{"field": "planId", "msg": "Plan ID is required"}}, body["errors"])
	})
}

type memContactRepo struct {
	contact domain.Contact
}

func (r *memContactRepo) GetOrCreate(ctx context.Context) (*domain.Contact, error) {
	c := r.contact
	return &c, nil
}

func (r *memContactRepo) Update(ctx context.Context, updates map[string]string) (*domain.Contact, error) {
	if v, ok := updates["phone"]; ok {
		r.contact.Phone = v
	}
	if v, ok := updates["company_name"]; ok {
		r.contact.CompanyName = v
	}
	return r.GetOrCreate(ctx)
}

func TestContactHandler(t *testing.T) {
	h := NewContactHandler(service.NewContactService(&memContactRepo{contact: domain.DefaultContact()}))
	app := fiber.New()
	app.Get("/api/contact", h.Get)
	app.Put("/api/contact", h.Update)

	status, body := decode(t, app, fiber.MethodGet, "/api/contact", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "BlueFin ISP", body["companyName"])

	status, body = decode(t, app, fiber.MethodPut, "/api/contact", `{"phone":"+1 (555) 999-0000","instagram":"@bluefin"}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "Contact information updated successfully", body["message"])
	contact := body["contact"].(map[string]interface{})
	assert.Equal(t, "+1 (555) 999-0000", contact["phone"])
	assert.NotContains(t, contact, "instagram")

	status, body = decode(t, app, fiber.MethodPut, "/api/contact", `{"companyName":7}`)
	assert.Equal(t, 400, status)
	assert.NotEmpty(t, body["errors"])

	status, body = decode(t, app, fiber.MethodPut, "/api/contact", `{not json`)
	assert.Equal(t, 400, status)
	assert.Equal(t, "Invalid request body", body["message"])
}

type memPlanRepo struct {
	plans []*domain.Plan
}

func (r *memPlanRepo) Create(ctx context.Context, plan *domain.Plan) error {
	plan.ID = fmt.Sprintf("plan-%d", len(r.plans)+1)
	r.plans = append(r.plans, plan)
	return nil
}

func (r *memPlanRepo) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	for _, p := range r.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrPlanNotFound
}

func (r *memPlanRepo) GetActive(ctx context.Context) ([]*domain.Plan, error) { return r.plans, nil }
func (r *memPlanRepo) GetAll(ctx context.Context) ([]*domain.Plan, error) { return r.plans, nil }
func (r *memPlanRepo) Update(ctx context.Context, plan *domain.Plan) error { return nil }
func (r *memPlanRepo) Delete(ctx context.Context, id string) error { return nil }

func TestPlanHandler_CreateValidity(t *testing.T) {
	repo := &memPlanRepo{}
	h := NewPlanHandler(service.NewPlanService(repo))
	app := fiber.New()
	app.Post("/api/admin/plans", h.Create)

	plan := func(validity string) string {
		return `{"name":"Basic","description":"Light users","speed":"50 Mbps","price":499,"validity":` + validity + `}`
	}

	status, body := decode(t, app, fiber.MethodPost, "/api/admin/plans", plan(`"30"`))
	assert.Equal(t, 201, status)
	assert.Equal(t, float64(30), body["validity"])

	for _, validity := range []string{`30.5`, `"abc"`, `0`} {
		status, body = decode(t, app, fiber.MethodPost, "/api/admin/plans", plan(validity))
		assert.Equal(t, 400, status, validity)
		assert.Equal(t, []interface{}{map[string]interface{}{"field": "validity", "msg": "Validity must be a positive number"}}, body["errors"], validity)
	}
	assert.Len(t, repo.plans, 1)
}

func TestPaymentHandler_SubmitWithoutScreenshot(t *testing.T) {
	svc := service.NewPaymentService(nil, nil, nil, nil, nil, nil, nil, nil, service.PaymentServiceConfig{MaxUploadBytes: 5 << 20})
	h := NewPaymentHandler(svc)
	app := fiber.New()
	app.Post("/api/payments/submit", func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDKey, "u1")
		return c.Next()
	}, h.Submit)

	req := httptest.NewRequest(fiber.MethodPost, "/api/payments/submit", strings.NewReader("planId=abc"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, []interface{}{map[string]interface{}{"field": "screenshot", "msg": "Payment screenshot is required"}}, body["errors"])
}

func TestActorFrom(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDKey, "admin-1")
		c.Locals(middleware.NameKey, "Ops")
		c.Locals(middleware.RoleKey, domain.RoleAdmin)
		actor := actorFrom(c)
		return c.JSON(fiber.Map{"id": actor.ID, "name": actor.Name, "admin": actor.IsAdmin()})
	})

	_, body := decode(t, app, fiber.MethodGet, "/", "")
	assert.Equal(t, map[string]interface{}{"id": "admin-1", "name": "Ops", "admin": true}, body)
}
