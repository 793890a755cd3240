//go:build unit

package resource_test

import (
	"testing"
	"time"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/resource"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rate(v float64) *money.Money {
	m := money.FromFloat(v)
	return &m
}

func validTiers() resource.PricingTiers {
	return resource.PricingTiers{
		Daily:    rate(50),
		Deposit:  money.FromFloat(100),
		Currency: "USD",
	}
}

func TestNewResource(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	ownerID := uuid.New()

	t.Run("valid resource", func(t *testing.T) {
		res, err := resource.NewResource(ownerID, "Pressure washer", "", validTiers(), resource.DeliveryTerms{}, now)
		require.NoError(t, err)
		assert.Equal(t, resource.StatusActive, res.Status())
		assert.Equal(t, ownerID, res.OwnerID())
		assert.False(t, res.IsDeleted())
	})

	t.Run("title is trimmed and required", func(t *testing.T) {
		_, err := resource.NewResource(ownerID, "   ", "", validTiers(), resource.DeliveryTerms{}, now)
		require.ErrorIs(t, err, resource.ErrEmptyTitle)

		res, err := resource.NewResource(ownerID, "  Ladder  ", "", validTiers(), resource.DeliveryTerms{}, now)
		require.NoError(t, err)
		assert.Equal(t, "Ladder", res.Title())
	})

	t.Run("at least one tier required", func(t *testing.T) {
		_, err := resource.NewResource(ownerID, "Ladder", "", resource.PricingTiers{}, resource.DeliveryTerms{}, now)
		require.ErrorIs(t, err, resource.ErrNoPricingTier)
	})

	t.Run("negative rates rejected", func(t *testing.T) {
		tiers := validTiers()
		tiers.Hourly = rate(-1)
		_, err := resource.NewResource(ownerID, "Ladder", "", tiers, resource.DeliveryTerms{}, now)
		require.ErrorIs(t, err, resource.ErrNegativeRate)
	})

	t.Run("currency defaults to USD", func(t *testing.T) {
		tiers := validTiers()
		tiers.Currency = ""
		res, err := resource.NewResource(ownerID, "Ladder", "", tiers, resource.DeliveryTerms{}, now)
		require.NoError(t, err)
		assert.Equal(t, "USD", res.Tiers().Currency)
	})
}

func TestUpdateTiers(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	res, err := resource.NewResource(uuid.New(), "Ladder", "", validTiers(), resource.DeliveryTerms{}, now)
	require.NoError(t, err)

	newTiers := resource.PricingTiers{Weekly: rate(200), Currency: "USD"}
	require.NoError(t, res.UpdateTiers(newTiers, now.Add(time.Hour)))
	assert.Nil(t, res.Tiers().Daily)
	require.NotNil(t, res.Tiers().Weekly)

	err = res.UpdateTiers(resource.PricingTiers{}, now.Add(2*time.Hour))
	require.ErrorIs(t, err, resource.ErrNoPricingTier)
}

func TestSoftDelete(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	res, err := resource.NewResource(uuid.New(), "Ladder", "", validTiers(), resource.DeliveryTerms{}, now)
	require.NoError(t, err)

	res.SoftDelete(now.Add(time.Hour))
	assert.True(t, res.IsDeleted())

	// Deleting twice stays deleted.
	res.SoftDelete(now.Add(2 * time.Hour))
	assert.True(t, res.IsDeleted())
}
