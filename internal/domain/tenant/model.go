package tenant

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier determines how many monitoring plans a practice may run
// concurrently.
type SubscriptionTier string

const (
	TierBasic    SubscriptionTier = "BASIC"
	TierStandard SubscriptionTier = "STANDARD"
	TierPremium  SubscriptionTier = "PREMIUM"
	TierTrial    SubscriptionTier = "TRIAL"
)

// SubscriptionStatus is the billing state of a practice. Only ACTIVE and
// TRIAL subscriptions may activate new plans.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "ACTIVE"
	StatusTrial    SubscriptionStatus = "TRIAL"
	StatusExpired  SubscriptionStatus = "EXPIRED"
	StatusCanceled SubscriptionStatus = "CANCELED"
)

var validTiers = map[SubscriptionTier]bool{
	TierBasic:    true,
	TierStandard: true,
	TierPremium:  true,
	TierTrial:    true,
}

var validStatuses = map[SubscriptionStatus]bool{
	StatusActive:   true,
	StatusTrial:    true,
	StatusExpired:  true,
	StatusCanceled: true,
}

// Tenant is one veterinary practice. Slug doubles as the schema suffix
// (tenant_<slug>), so it is restricted to schema-safe characters by the
// platform layer.
type Tenant struct {
	ID                 uuid.UUID          `json:"id"`
	Slug               string             `json:"slug"`
	Name               string             `json:"name"`
	SubscriptionTier   SubscriptionTier   `json:"subscription_tier"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	Active             bool               `json:"active"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Unlimited marks a tier without a concurrent-plan cap.
const Unlimited = -1

// tierCaps holds the concurrent ACTIVE plan cap per tier.
var tierCaps = map[SubscriptionTier]int{
	TierBasic:    5,
	TierStandard: 20,
	TierPremium:  Unlimited,
	TierTrial:    Unlimited,
}

// Quota is the active-plan allowance derived from a tenant's tier.
type Quota struct {
	Tier SubscriptionTier
	Cap  int
}

// Allows reports whether one more plan may go ACTIVE given the current
// ACTIVE count.
func (q Quota) Allows(currentActiveCount int) bool {
	if q.Cap == Unlimited {
		return true
	}
	return currentActiveCount < q.Cap
}

// QuotaFor returns the tenant's activation quota. ok is false for an
// unknown tier, which callers must treat as a denial, never a bypass.
func QuotaFor(t *Tenant) (Quota, bool) {
	cap, known := tierCaps[t.SubscriptionTier]
	if !known {
		return Quota{}, false
	}
	return Quota{Tier: t.SubscriptionTier, Cap: cap}, true
}

// CanActivate decides whether a plan may transition into ACTIVE. It fails
// closed: a subscription that is neither ACTIVE nor TRIAL cannot activate
// anything, and an unrecognized tier denies rather than allows.
func CanActivate(t *Tenant, currentActiveCount int) bool {
	if t == nil {
		return false
	}
	if t.SubscriptionStatus != StatusActive && t.SubscriptionStatus != StatusTrial {
		return false
	}
	q, ok := QuotaFor(t)
	if !ok {
		return false
	}
	return q.Allows(currentActiveCount)
}
