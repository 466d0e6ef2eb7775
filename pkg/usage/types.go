package usage

// Snapshot holds the current counts of a restaurant's countable resources.
// Counts are sourced from whatever owns the product/category/branch/order
// records; this core treats the snapshot as opaque input.
type Snapshot struct {
	Products   int64 `json:"products"`
	Categories int64 `json:"categories"`
	Branches   int64 `json:"branches"`
	Orders     int64 `json:"orders"`
}

// CheckResult is the outcome of a usage gate. Checks back UI gating, not
// transactional integrity, so failures degrade to Allowed=false with a
// reason instead of an error.
type CheckResult struct {
	Allowed   bool   `json:"allowed"`
	Remaining int64  `json:"remaining"` // -1 when unlimited
	Reason    string `json:"reason"`
}

// Reasons reported by CheckLimit.
const (
	ReasonOK             = "OK"
	ReasonNoSubscription = "No subscription found"
	ReasonNotActive      = "Subscription not active"
	ReasonLimitReached   = "Limit reached"
	ReasonError          = "Error checking limit"
)

// Info pairs current usage with the effective limit for one resource.
type Info struct {
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}
