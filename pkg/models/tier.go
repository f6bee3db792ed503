package models

// ModelTier groups Claude models by capability and cost.
type ModelTier string

const (
	// TierHaiku is the fast, low-cost tier.
	TierHaiku ModelTier = "haiku"
	// TierSonnet is the default balanced tier.
	TierSonnet ModelTier = "sonnet"
	// TierOpus is the most capable tier.
	TierOpus ModelTier = "opus"
)

// Valid returns true if the tier is a known value.
func (t ModelTier) Valid() bool {
	switch t {
	case TierHaiku, TierSonnet, TierOpus:
		return true
	default:
		return false
	}
}

// Pricing returns approximate USD prices per million input and output tokens.
func (t ModelTier) Pricing() (input, output float64) {
	switch t {
	case TierHaiku:
		return 1.0, 5.0
	case TierOpus:
		return 15.0, 75.0
	default:
		return 3.0, 15.0
	}
}
