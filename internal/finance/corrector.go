package finance

import (
	"math"
	"sort"
)

// DefaultAnomalyThreshold is the magnitude above which a USD-tagged amount is
// assumed to be a mis-entered local-currency figure. Sized so that legitimate
// USD totals stay under it while corrected values never re-trigger it.
const DefaultAnomalyThreshold = 1_000_000

const correctionReason = "amount exceeds plausible USD magnitude"

// Corrector detects the recurring data-entry mistake where an operator types a
// local-currency figure into a USD-denominated field. It produces a corrected
// view of the snapshot plus the correction records; the source records are
// never mutated.
type Corrector struct {
	Threshold   float64
	DefaultRate float64
}

// NewCorrector builds a corrector from the snapshot settings, filling in the
// default threshold when the settings carry none.
func NewCorrector(settings Settings) Corrector {
	threshold := settings.AnomalyThreshold
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}
	return Corrector{Threshold: threshold, DefaultRate: settings.DefaultExchangeRate}
}

// Apply scans USD-tagged amounts and returns a corrected copy of the snapshot
// together with one correction record per adjusted source record. Re-applying
// the corrector to its own output is a no-op: a correction only fires when the
// rescaled value lands strictly under the threshold.
func (c Corrector) Apply(s Snapshot) (Snapshot, []Correction) {
	out := s
	var corrections []Correction

	out.Orders = append([]SaleOrder(nil), s.Orders...)
	for i, o := range out.Orders {
		if !c.triggers(o.Total) {
			continue
		}
		corrected := o.Total / c.DefaultRate
		corrections = append(corrections, Correction{
			ID:              o.ID,
			Kind:            SubjectOrder,
			Reason:          correctionReason,
			OriginalAmount:  o.Total,
			CorrectedAmount: corrected,
		})
		// The order's USD money fields share the mis-entered unit, so the
		// whole record rescales by the same factor.
		out.Orders[i].Total = corrected
		out.Orders[i].Subtotal = o.Subtotal / c.DefaultRate
		out.Orders[i].VATAmount = o.VATAmount / c.DefaultRate
		out.Orders[i].AmountPaid = o.AmountPaid / c.DefaultRate
	}

	out.Transactions = append([]LedgerTransaction(nil), s.Transactions...)
	for i, tx := range out.Transactions {
		if tx.Currency != CurrencyUSD || !c.triggers(tx.Amount) {
			continue
		}
		corrected := tx.Amount / c.DefaultRate
		corrections = append(corrections, Correction{
			ID:              tx.ID,
			Kind:            SubjectTransaction,
			Reason:          correctionReason,
			OriginalAmount:  tx.Amount,
			CorrectedAmount: corrected,
		})
		out.Transactions[i].Amount = corrected
	}

	out.Expenses = append([]Expense(nil), s.Expenses...)
	for i, e := range out.Expenses {
		if e.Currency != CurrencyUSD || !c.triggers(e.Amount) {
			continue
		}
		corrected := e.Amount / c.DefaultRate
		corrections = append(corrections, Correction{
			ID:              e.ID,
			Kind:            SubjectExpense,
			Reason:          correctionReason,
			OriginalAmount:  e.Amount,
			CorrectedAmount: corrected,
		})
		out.Expenses[i].Amount = corrected
	}

	sort.Slice(corrections, func(i, j int) bool {
		if corrections[i].Kind != corrections[j].Kind {
			return corrections[i].Kind < corrections[j].Kind
		}
		return corrections[i].ID < corrections[j].ID
	})
	return out, corrections
}

// triggers reports whether an amount qualifies for correction. A rate at or
// below 1 cannot distinguish the two units, and a rescaled value that would
// still exceed the threshold is left alone to keep the corrector idempotent.
func (c Corrector) triggers(amount float64) bool {
	if c.DefaultRate <= 1 {
		return false
	}
	if math.Abs(amount) <= c.Threshold {
		return false
	}
	return math.Abs(amount/c.DefaultRate) < c.Threshold
}
