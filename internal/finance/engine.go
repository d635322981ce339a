package finance

import "math"

// Result is everything one engine run derives from a snapshot. It is a plain
// value, re-derivable at any time from the same inputs; nothing in it is
// persisted unless the caller decides to write it back.
type Result struct {
	Sheet            BalanceSheet       `json:"sheet"`
	Corrections      []Correction       `json:"corrections"`
	Debts            []RecalculatedDebt `json:"debts"`
	UnreliableInputs int                `json:"unreliable_inputs"`
}

// Balanced reports whether assets and passives agree within tolerance. The
// composer's residual construction makes divergence structurally impossible,
// so a false here points at inconsistent inputs worth logging.
func (r Result) Balanced() bool {
	return math.Abs(r.Sheet.TotalAssets-r.Sheet.TotalPassives) <= BalanceTolerance
}

// Engine runs the reconciliation pipeline: anomaly correction, cash ledger
// aggregation, debt reconciliation, balance sheet composition. It is a pure
// function of the snapshot: no ambient state, no I/O, no mutation of inputs,
// and the same snapshot yields the same result in any event order.
type Engine struct {
	matcher CounterpartyMatcher
}

// NewEngine builds an engine. A nil matcher selects the default NameMatcher.
func NewEngine(matcher CounterpartyMatcher) *Engine {
	if matcher == nil {
		matcher = NameMatcher{}
	}
	return &Engine{matcher: matcher}
}

// Recalculate derives the balance sheet, corrections and per-counterparty
// debts from the snapshot. Every downstream component consumes the corrected
// view; the raw snapshot is left untouched.
func (e *Engine) Recalculate(s Snapshot) Result {
	corrector := NewCorrector(s.Settings)
	corrected, corrections := corrector.Apply(s)

	cash, cashDegraded := AggregateCash(corrected)

	reconciler := NewReconciler(e.matcher)
	clientDebts, clientDegraded := reconciler.ClientDebts(corrected)
	supplierDebts, supplierDegraded := reconciler.SupplierDebts(corrected)

	var receivables, payables float64
	for _, d := range clientDebts {
		receivables += d.Debt
	}
	for _, d := range supplierDebts {
		payables += d.Debt
	}

	sheet, sheetDegraded := Compose(corrected, cash, receivables, payables, corrections)

	debts := make([]RecalculatedDebt, 0, len(clientDebts)+len(supplierDebts))
	debts = append(debts, clientDebts...)
	debts = append(debts, supplierDebts...)

	return Result{
		Sheet:            sheet,
		Corrections:      corrections,
		Debts:            debts,
		UnreliableInputs: cashDegraded + clientDegraded + supplierDegraded + sheetDegraded,
	}
}
