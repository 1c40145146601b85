package service

import (
	"context"
	"testing"

	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactService(t *testing.T) {
	svc := NewContactService(&fakeContactRepo{})
	ctx := context.Background()

	contact, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BlueFin ISP", contact.CompanyName)
	assert.Equal(t, "24/7", contact.BusinessHours)

	contact, err = svc.Update(ctx, map[string]interface{}{
		"phone":         "+1 (555) 000-1111",
		"businessHours": "Mon-Fri 9-5",
		"role":          "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "+1 (555) 000-1111", contact.Phone)
	assert.Equal(t, "Mon-Fri 9-5", contact.BusinessHours)
	assert.Equal(t, "support@bluefinisp.com", contact.Email, "untouched fields keep their values")

	again, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, contact.Phone, again.Phone)

	_, err = svc.Update(ctx, map[string]interface{}{"email": 42})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Errors[0].Field)
}
