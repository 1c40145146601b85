package service

import (
	"context"
	"testing"
	"time"

	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService(t *testing.T) {
	now := time.Now().UTC()
	users := newFakeUserRepo(
		&domain.User{ID: "u1", Name: "Jane", Role: domain.RoleUser, ActivePlan: &domain.ActivePlan{PlanID: "basic", StartDate: now, EndDate: now.AddDate(0, 0, 30), Status: domain.ActivePlanStatusActive}},
		&domain.User{ID: "u2", Name: "Joe", Role: domain.RoleUser, ActivePlan: &domain.ActivePlan{PlanID: "retired", Status: domain.ActivePlanStatusActive}},
		&domain.User{ID: "admin-1", Name: "Ops", Role: domain.RoleAdmin},
	)
	plans := newFakePlanRepo(&domain.Plan{ID: "basic", Name: "Basic", Validity: 30, Price: 499})
	payments := newFakePaymentRepo()
	svc := NewUserService(users, payments, plans)
	ctx := context.Background()

	require.NoError(t, payments.Create(ctx, &domain.Payment{UserID: "u1", PlanID: "basic", Status: domain.PaymentStatusPending, SubmittedAt: now}))

	t.Run("me resolves the active plan", func(t *testing.T) {
		me, err := svc.Me(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, me.Plan)
		assert.Equal(t, "Basic", me.Plan.Name)
	})

	t.Run("dangling plan reference", func(t *testing.T) {
		me, err := svc.Me(ctx, "u2")
		require.NoError(t, err)
		assert.Nil(t, me.Plan)
		assert.Equal(t, "retired", me.ActivePlan.PlanID)
	})

	t.Run("no active plan", func(t *testing.T) {
		me, err := svc.Me(ctx, "admin-1")
		require.NoError(t, err)
		assert.Nil(t, me.Plan)
	})

	t.Run("customers only", func(t *testing.T) {
		customers, err := svc.ListCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, customers, 2)
		for _, c := range customers {
			assert.Equal(t, domain.RoleUser, c.Role)
		}
	})

	t.Run("detail", func(t *testing.T) {
		detail, err := svc.Detail(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Jane", detail.Name)
		assert.Len(t, detail.Payments, 1)
		require.NotNil(t, detail.Plan)

		_, err = svc.Detail(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
