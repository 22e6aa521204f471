package catalog

import (
	"testing"

	"github.com/reelkit/reelkit/internal/config"
	"github.com/reelkit/reelkit/internal/types"
	"github.com/stretchr/testify/assert"
)

func testConfig() *config.Configuration {
	cfg := config.GetDefaultConfig()
	cfg.Plans = []config.PlanConfig{
		{PriceID: "price_starter", Tier: types.TierStarter, UGCCredits: 5, FacelessCredits: 10},
		{PriceID: "price_professional", Tier: types.TierProfessional, UGCCredits: 20, FacelessCredits: 40},
	}
	return cfg
}

func TestResolveTier(t *testing.T) {
	c := NewCatalog(testConfig())

	plan := c.ResolveTier("price_starter")
	assert.Equal(t, types.TierStarter, plan.Tier)
	assert.Equal(t, 5, plan.UGCCredits)
	assert.Equal(t, 10, plan.FacelessCredits)

	// unknown price ids degrade to the zero-allowance free plan
	plan = c.ResolveTier("price_does_not_exist")
	assert.Equal(t, types.TierFree, plan.Tier)
	assert.Equal(t, 0, plan.UGCCredits)
	assert.Equal(t, 0, plan.FacelessCredits)
}

func TestResolvePlan(t *testing.T) {
	c := NewCatalog(testConfig())

	plan := c.ResolvePlan(types.TierProfessional)
	assert.Equal(t, 20, plan.UGCCredits)
	assert.Equal(t, 40, plan.FacelessCredits)

	plan = c.ResolvePlan(types.TierNone)
	assert.Equal(t, 0, plan.UGCCredits)
	assert.Equal(t, 0, plan.FacelessCredits)
}
