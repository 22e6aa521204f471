package types

// PlanTier is a named billing level determining each credit pool's
// monthly allowance. Tiers are provisioned in the plan catalog config;
// TierFree is the zero-allowance fallback for unknown price ids and
// TierNone is the terminal state after cancellation.
type PlanTier string

const (
	TierNone         PlanTier = "none"
	TierFree         PlanTier = "free"
	TierStarter      PlanTier = "starter"
	TierProfessional PlanTier = "professional"
	TierBusiness     PlanTier = "business"
	TierScale        PlanTier = "scale"
)

func (t PlanTier) String() string {
	return string(t)
}

// CreditPoolKind identifies one of the two independently metered
// monthly quotas on a ledger.
type CreditPoolKind string

const (
	CreditPoolUGC      CreditPoolKind = "ugc"
	CreditPoolFaceless CreditPoolKind = "faceless"
)

func (k CreditPoolKind) Validate() bool {
	return k == CreditPoolUGC || k == CreditPoolFaceless
}
