// Package plansource loads the subscription plan catalog from static
// sources and serves it as a plan store. Plans change through deploys, not
// at runtime, so a cached catalog with explicit reload is enough.
package plansource
