package limits

// fixedKeys lists every limit the merger resolves, in a stable order.
var fixedKeys = []Key{
	KeyMaxProducts,
	KeyMaxCategories,
	KeyMaxBranches,
	KeyMaxUsers,
	KeyMaxOrders,
	KeyAnalyticsRetention,
	KeyThemeCustomization,
	KeyAdvancedAnalytics,
	KeyAPIAccess,
	KeyPrioritySupport,
	KeyCustomDomain,
	KeyWhiteLabel,
	KeyMultiLanguage,
	KeyExportData,
	KeyBackupRestore,
	KeySupportLevel,
}

// defaults is the single source of fallback limit values. No other
// component may invent its own default. The maxBranches default of 20 is
// the historical default tier and is intentional.
var defaults = Map{
	KeyMaxProducts:        Count(0),
	KeyMaxCategories:      Count(0),
	KeyMaxBranches:        Count(20),
	KeyMaxUsers:           Count(0),
	KeyMaxOrders:          Count(0),
	KeyAnalyticsRetention: Count(0),
	KeyThemeCustomization: Flag(false),
	KeyAdvancedAnalytics:  Flag(false),
	KeyAPIAccess:          Flag(false),
	KeyPrioritySupport:    Flag(false),
	KeyCustomDomain:       Flag(false),
	KeyWhiteLabel:         Flag(false),
	KeyMultiLanguage:      Flag(false),
	KeyExportData:         Flag(false),
	KeyBackupRestore:      Flag(false),
	KeySupportLevel:       Tier("email"),
}

// Keys returns the fixed limit keys in stable order.
func Keys() []Key {
	out := make([]Key, len(fixedKeys))
	copy(out, fixedKeys)
	return out
}

// Default returns the fallback value for a fixed key; the zero Value for
// unknown keys.
func Default(key Key) Value {
	return defaults.Get(key)
}

// Merge resolves the effective limit set for a subscription: plan values
// form the base, overrides win only when they carry a meaningful value.
// A zero count, empty tier, or absent entry in override falls back to the
// plan value, then to the default table. Override keys outside the fixed
// list are passed through unchanged. Pure function, inputs are not
// modified.
func Merge(plan, override Map) Map {
	out := make(Map, len(fixedKeys)+len(override))

	for _, key := range fixedKeys {
		v := defaults.Get(key)
		if pv := plan.Get(key); pv.IsSet() {
			v = pv
		}
		if ov := override.Get(key); ov.meaningful() {
			v = ov
		}
		out[key] = v
	}

	// Forward-compatibility: unknown override keys survive the merge.
	for key, v := range override {
		if _, known := out[key]; !known {
			out[key] = v
		}
	}

	return out
}
