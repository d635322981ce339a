package finance

import (
	"sort"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/finance/fx"
)

// debtEpsilon is the residual under which an order counts as settled.
const debtEpsilon = 0.01

// debtDoc is the common shape of a debt-bearing document. Sale orders and
// purchases both reduce to it so the client and supplier sides share one
// reconciliation core instead of two diverging formulas.
type debtDoc struct {
	ID             string
	CounterpartyID string
	Name           string
	Total          float64
	Paid           float64
	DebtMethod     bool
	Unsettled      bool
}

// Reconciler derives per-counterparty outstanding debt from document payment
// state merged with directly attributed ledger transactions. All steps are
// associative sums over filtered subsets, so the result is independent of the
// ordering of every input slice.
type Reconciler struct {
	Matcher CounterpartyMatcher
}

// NewReconciler builds a reconciler, defaulting to the substring NameMatcher.
func NewReconciler(matcher CounterpartyMatcher) Reconciler {
	if matcher == nil {
		matcher = NameMatcher{}
	}
	return Reconciler{Matcher: matcher}
}

// ClientDebts recomputes every client's receivable balance. Expects the
// corrected snapshot view. The second return value counts transactions whose
// currency conversion degraded to zero.
func (r Reconciler) ClientDebts(s Snapshot) ([]RecalculatedDebt, int) {
	docs := make([]debtDoc, 0, len(s.Orders))
	for _, o := range s.Orders {
		docs = append(docs, debtDoc{
			ID:             o.ID,
			CounterpartyID: o.CounterpartyID,
			Name:           o.CounterpartyName,
			Total:          o.Total,
			Paid:           o.AmountPaid,
			DebtMethod:     o.PaymentMethod == MethodDebt,
			Unsettled:      o.PaymentStatus == StatusUnpaid || o.PaymentStatus == StatusPartial,
		})
	}
	return r.reconcileSide(s.Clients, docs, s.Transactions, SideClient, s.Settings.DefaultExchangeRate)
}

// SupplierDebts is the payable-side mirror over purchase records.
func (r Reconciler) SupplierDebts(s Snapshot) ([]RecalculatedDebt, int) {
	docs := make([]debtDoc, 0, len(s.Purchases))
	for _, p := range s.Purchases {
		docs = append(docs, debtDoc{
			ID:             p.ID,
			CounterpartyID: p.SupplierID,
			Name:           p.SupplierName,
			Total:          p.TotalInvoice,
			Paid:           p.AmountPaid,
			Unsettled:      p.PaymentStatus == StatusUnpaid || p.PaymentStatus == StatusPartial,
		})
	}
	return r.reconcileSide(s.Suppliers, docs, s.Transactions, SideSupplier, s.Settings.DefaultExchangeRate)
}

func (r Reconciler) reconcileSide(parties []Counterparty, docs []debtDoc, txs []LedgerTransaction, side DebtSide, defaultRate float64) ([]RecalculatedDebt, int) {
	debts := make([]RecalculatedDebt, 0, len(parties))
	unreliable := 0
	for _, c := range parties {
		debt, degraded := r.reconcile(c, docs, txs, side, defaultRate)
		unreliable += degraded
		debts = append(debts, RecalculatedDebt{
			CounterpartyID: c.ID,
			Name:           c.Name,
			Side:           side,
			Debt:           debt,
		})
	}
	sort.Slice(debts, func(i, j int) bool { return debts[i].CounterpartyID < debts[j].CounterpartyID })
	return debts, unreliable
}

// reconcile computes one counterparty's outstanding balance:
//
//	debt = Σ outstanding(debt-bearing docs)
//	     + Σ obligations not referencing a counted doc
//	     − Σ payments not referencing a counted doc
//	     − Σ debt-settled returns
//
// clamped at zero. Payments referencing a counted document are excluded
// because the document's own paid amount already reflects them.
func (r Reconciler) reconcile(c Counterparty, docs []debtDoc, txs []LedgerTransaction, side DebtSide, defaultRate float64) (float64, int) {
	countedDocs := make(map[string]bool)
	var total float64
	for _, d := range docs {
		if r.Matcher.Match(c, d.CounterpartyID, d.Name) == MatchNone {
			continue
		}
		if !d.DebtMethod && !d.Unsettled && d.Total-d.Paid <= debtEpsilon {
			continue
		}
		countedDocs[d.ID] = true
		total += ClampNonNegative(d.Total - d.Paid)
	}

	unreliable := 0
	obligations := make(map[string]bool)
	paymentKind := KindClientPayment
	if side == SideSupplier {
		paymentKind = KindSupplierPayment
	}

	// Legacy obligations recorded before document-level tracking existed.
	for _, tx := range txs {
		if tx.Kind != KindDebtObligation {
			continue
		}
		if !r.attributed(c, tx) || referencesDoc(tx, countedDocs) {
			continue
		}
		obligations[tx.ID] = true
		usd, ok := fx.ToUSD(tx.Amount, tx.Currency, tx.ExchangeRate, defaultRate)
		if !ok {
			unreliable++
		}
		total += usd
	}

	for _, tx := range txs {
		settles := tx.Kind == paymentKind ||
			(side == SideClient && tx.Kind == KindIncome && indicatesDebtRepayment(tx.Description))
		if !settles {
			continue
		}
		if !r.attributed(c, tx) && !obligations[tx.RelatedID] {
			continue
		}
		if referencesDoc(tx, countedDocs) {
			continue
		}
		usd, ok := fx.ToUSD(tx.Amount, tx.Currency, tx.ExchangeRate, defaultRate)
		if !ok {
			unreliable++
		}
		total -= usd
	}

	if side == SideClient {
		for _, tx := range txs {
			if tx.Kind != KindClientReturn || tx.Method != MethodDebt {
				continue
			}
			if !r.attributed(c, tx) {
				continue
			}
			usd, ok := fx.ToUSD(tx.Amount, tx.Currency, tx.ExchangeRate, defaultRate)
			if !ok {
				unreliable++
			}
			total -= usd
		}
	}

	return ClampNonNegative(total), unreliable
}

// attributed reports whether a transaction belongs to the counterparty:
// either its related id points at the counterparty, or it carries no related
// id and its description mentions the counterparty by name.
func (r Reconciler) attributed(c Counterparty, tx LedgerTransaction) bool {
	if tx.RelatedID == c.ID && c.ID != "" {
		return true
	}
	if tx.RelatedID != "" {
		return false
	}
	return descriptionMentions(tx.Description, c.Name) || descriptionMentions(tx.Description, c.CompanyName)
}

// referencesDoc reports whether a transaction already points at one of the
// counted documents, by related id or by description. Such transactions are
// excluded from the balance to avoid double counting.
func referencesDoc(tx LedgerTransaction, countedDocs map[string]bool) bool {
	if countedDocs[tx.RelatedID] {
		return true
	}
	if tx.Description == "" {
		return false
	}
	for id := range countedDocs {
		if id != "" && strings.Contains(tx.Description, id) {
			return true
		}
	}
	return false
}

func indicatesDebtRepayment(description string) bool {
	return strings.Contains(strings.ToLower(description), "debt")
}

func descriptionMentions(description, name string) bool {
	name = normalizeName(name)
	if name == "" || description == "" {
		return false
	}
	return strings.Contains(strings.ToLower(description), name)
}
