// Package fx normalizes multi-currency amounts to USD.
package fx

// USD is the reporting currency every amount normalizes into.
const USD = "USD"

// ToUSD converts an amount recorded in the given currency to USD. A positive
// snapshot rate recorded on the event wins over the supplied default rate.
// The second return value reports whether the conversion was reliable: when
// both rates are non-positive the amount degrades to zero and the caller is
// expected to count the input toward its data-quality diagnostics.
func ToUSD(amount float64, currency string, snapshotRate, defaultRate float64) (float64, bool) {
	if currency == USD || currency == "" {
		return amount, true
	}
	if snapshotRate > 0 {
		return amount / snapshotRate, true
	}
	if defaultRate > 0 {
		return amount / defaultRate, true
	}
	return 0, false
}

// FromUSD converts a USD amount back into the given currency using the same
// rate preference as ToUSD. Used when a local-currency cash bucket needs the
// local figure of a USD-recorded payment.
func FromUSD(amount float64, currency string, snapshotRate, defaultRate float64) (float64, bool) {
	if currency == USD || currency == "" {
		return amount, true
	}
	if snapshotRate > 0 {
		return amount * snapshotRate, true
	}
	if defaultRate > 0 {
		return amount * defaultRate, true
	}
	return 0, false
}
