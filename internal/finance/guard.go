package finance

// BalanceTolerance bounds the acceptable drift between total assets and total
// passives before the sheet is flagged as inconsistent.
const BalanceTolerance = 1e-6

// ClampNonNegative floors a derived balance at zero. Negative computed cash or
// debt always indicates an upstream data defect, never legitimate state, so the
// guard hides it from downstream consumers instead of propagating it.
func ClampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
