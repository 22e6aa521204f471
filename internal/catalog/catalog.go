package catalog

import (
	"github.com/reelkit/reelkit/internal/config"
	"github.com/reelkit/reelkit/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Plan is one resolved plan catalog entry.
type Plan struct {
	Tier            types.PlanTier
	UGCCredits      int
	FacelessCredits int
	MonthlyPrice    decimal.Decimal
}

// Catalog is the immutable mapping from a Stripe price id to a plan
// tier and its monthly credit allowances. Loaded once at process start
// from config; pure lookup after that.
type Catalog struct {
	byPriceID map[string]Plan
	byTier    map[types.PlanTier]Plan
}

// freePlan is the zero-allowance fallback. Unknown price ids resolve
// to it so unexpected provider-side price changes degrade safely
// instead of failing the webhook path.
var freePlan = Plan{Tier: types.TierFree}

// NewCatalog builds the catalog from the provisioned plan config.
func NewCatalog(cfg *config.Configuration) *Catalog {
	byPriceID := make(map[string]Plan, len(cfg.Plans))
	for _, p := range cfg.Plans {
		byPriceID[p.PriceID] = Plan{
			Tier:            p.Tier,
			UGCCredits:      p.UGCCredits,
			FacelessCredits: p.FacelessCredits,
			MonthlyPrice:    p.MonthlyPrice,
		}
	}

	byTier := lo.SliceToMap(lo.Values(byPriceID), func(p Plan) (types.PlanTier, Plan) {
		return p.Tier, p
	})

	return &Catalog{
		byPriceID: byPriceID,
		byTier:    byTier,
	}
}

// ResolveTier maps a Stripe price id to its plan. Unknown ids resolve
// to the free plan with zero allowances.
func (c *Catalog) ResolveTier(priceID string) Plan {
	if plan, ok := c.byPriceID[priceID]; ok {
		return plan
	}
	return freePlan
}

// ResolvePlan returns the plan definition for a tier. TierNone and
// unknown tiers resolve to zero allowances.
func (c *Catalog) ResolvePlan(tier types.PlanTier) Plan {
	if plan, ok := c.byTier[tier]; ok {
		return plan
	}
	return Plan{Tier: tier}
}
