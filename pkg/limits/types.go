package limits

import "maps"

// Key identifies a single plan limit.
type Key string

// Fixed limit keys recognized by the merger. Keys outside this list are
// passed through untouched so newer plan payloads keep working against
// older builds.
const (
	KeyMaxProducts        Key = "maxProducts"
	KeyMaxCategories      Key = "maxCategories"
	KeyMaxBranches        Key = "maxBranches"
	KeyMaxUsers           Key = "maxUsers"
	KeyMaxOrders          Key = "maxOrders"
	KeyAnalyticsRetention Key = "analyticsRetention"
	KeyThemeCustomization Key = "themeCustomization"
	KeyAdvancedAnalytics  Key = "advancedAnalytics"
	KeyAPIAccess          Key = "apiAccess"
	KeyPrioritySupport    Key = "prioritySupport"
	KeyCustomDomain       Key = "customDomain"
	KeyWhiteLabel         Key = "whiteLabel"
	KeyMultiLanguage      Key = "multiLanguage"
	KeyExportData         Key = "exportData"
	KeyBackupRestore      Key = "backupRestore"
	KeySupportLevel       Key = "supportLevel"
)

// Unlimited marks a count limit with no cap (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// kind discriminates the value variants a limit can hold.
type kind uint8

const (
	kindAbsent kind = iota
	kindCount
	kindFlag
	kindTier
)

// Value is a single limit value: a numeric cap, a boolean feature toggle,
// or a string tier. The zero Value means "not set".
type Value struct {
	k     kind
	count int64
	flag  bool
	tier  string
}

// Count returns a numeric cap value. Use Unlimited for no cap.
func Count(n int64) Value { return Value{k: kindCount, count: n} }

// Flag returns a boolean toggle value.
func Flag(b bool) Value { return Value{k: kindFlag, flag: b} }

// Tier returns a string tier value (e.g. supportLevel).
func Tier(s string) Value { return Value{k: kindTier, tier: s} }

// IsSet reports whether the value holds anything at all.
func (v Value) IsSet() bool { return v.k != kindAbsent }

// IsCount reports whether the value is a numeric cap.
func (v Value) IsCount() bool { return v.k == kindCount }

// IsFlag reports whether the value is a boolean toggle.
func (v Value) IsFlag() bool { return v.k == kindFlag }

// IsTier reports whether the value is a string tier.
func (v Value) IsTier() bool { return v.k == kindTier }

// AsCount returns the numeric cap, or 0 for non-count values.
func (v Value) AsCount() int64 {
	if v.k != kindCount {
		return 0
	}
	return v.count
}

// AsFlag returns the toggle, or false for non-flag values.
func (v Value) AsFlag() bool {
	if v.k != kindFlag {
		return false
	}
	return v.flag
}

// AsTier returns the tier string, or "" for non-tier values.
func (v Value) AsTier() string {
	if v.k != kindTier {
		return ""
	}
	return v.tier
}

// IsUnlimited reports whether the value is the unlimited count sentinel.
func (v Value) IsUnlimited() bool { return v.k == kindCount && v.count == Unlimited }

// meaningful reports whether the value wins over a plan base when used as
// an override. Flags always win (false included), tiers win unless empty,
// counts win unless zero. A zero count is treated as "not configured", not
// as an explicit cap of zero.
func (v Value) meaningful() bool {
	switch v.k {
	case kindFlag:
		return true
	case kindTier:
		return v.tier != ""
	case kindCount:
		return v.count != 0
	default:
		return false
	}
}

// Map is a set of limit values keyed by limit name.
type Map map[Key]Value

// Clone returns a shallow copy of the map. Values are immutable so a
// shallow copy is a full copy.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Get returns the value for key; the zero Value when absent.
func (m Map) Get(key Key) Value {
	if m == nil {
		return Value{}
	}
	return m[key]
}
