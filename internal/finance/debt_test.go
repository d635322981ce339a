package finance

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func debtOf(t *testing.T, debts []RecalculatedDebt, counterpartyID string) float64 {
	t.Helper()
	for _, d := range debts {
		if d.CounterpartyID == counterpartyID {
			return d.Debt
		}
	}
	t.Fatalf("counterparty %s missing from output", counterpartyID)
	return 0
}

func TestClientDebtsSubtractDirectPayments(t *testing.T) {
	snapshot := Snapshot{
		Clients: []Counterparty{{ID: "cl-1", Name: "Alpha Trading"}},
		Orders: []SaleOrder{{
			ID:             "so-1",
			CounterpartyID: "cl-1",
			Total:          300,
			PaymentMethod:  MethodDebt,
			PaymentStatus:  StatusUnpaid,
		}},
		Transactions: []LedgerTransaction{{
			ID:        "tx-1",
			Kind:      KindClientPayment,
			Amount:    120,
			Currency:  CurrencyUSD,
			RelatedID: "cl-1",
		}},
		Settings: testSettings(),
	}

	debts, unreliable := NewReconciler(nil).ClientDebts(snapshot)
	if unreliable != 0 {
		t.Fatalf("expected no degraded conversions, got %d", unreliable)
	}
	if got := debtOf(t, debts, "cl-1"); math.Abs(got-180) > 1e-9 {
		t.Fatalf("expected 180, got %v", got)
	}
}

func TestClientDebtsNeverDoubleCountOrderPayments(t *testing.T) {
	snapshot := Snapshot{
		Clients: []Counterparty{{ID: "cl-1", Name: "Alpha Trading"}},
		Orders: []SaleOrder{{
			ID:             "so-1",
			CounterpartyID: "cl-1",
			Total:          100,
			AmountPaid:     40,
			PaymentStatus:  StatusPartial,
		}},
		// Already reflected in the order's amount paid. Must not be
		// subtracted a second time.
		Transactions: []LedgerTransaction{{
			ID:        "tx-1",
			Kind:      KindClientPayment,
			Amount:    40,
			Currency:  CurrencyUSD,
			RelatedID: "so-1",
		}},
		Settings: testSettings(),
	}

	debts, _ := NewReconciler(nil).ClientDebts(snapshot)
	if got := debtOf(t, debts, "cl-1"); math.Abs(got-60) > 1e-9 {
		t.Fatalf("expected 60, got %v", got)
	}
}

func TestClientDebtsExcludePaymentsReferencingDocsByDescription(t *testing.T) {
	snapshot := Snapshot{
		Clients: []Counterparty{{ID: "cl-1", Name: "Alpha Trading"}},
		Orders: []SaleOrder{{
			ID:             "so-1",
			CounterpartyID: "cl-1",
			Total:          100,
			AmountPaid:     40,
			PaymentStatus:  StatusPartial,
		}},
		Transactions: []LedgerTransaction{{
			ID:          "tx-1",
			Kind:        KindClientPayment,
			Amount:      40,
			Currency:    CurrencyUSD,
			Description: "partial payment from Alpha Trading for so-1",
		}},
		Settings: testSettings(),
	}

	debts, _ := NewReconciler(nil).ClientDebts(snapshot)
	if got := debtOf(t, debts, "cl-1"); math.Abs(got-60) > 1e-9 {
		t.Fatalf("expected 60, got %v", got)
	}
}

func TestClientDebtsIncludeLegacyObligations(t *testing.T) {
	snapshot := Snapshot{
		Clients: []Counterparty{{ID: "cl-1", Name: "Alpha Trading"}},
		Transactions: []LedgerTransaction{
			{ID: "tx-ob", Kind: KindDebtObligation, Amount: 2_560_000, Currency: CurrencyUZS, RelatedID: "cl-1"},
			// Settles the obligation; attributed through the obligation id.
			{ID: "tx-pay", Kind: KindClientPayment, Amount: 100, Currency: CurrencyUSD, RelatedID: "tx-ob"},
		},
		Settings: testSettings(),
	}

	debts, unreliable := NewReconciler(nil).ClientDebts(snapshot)
	if unreliable != 0 {
		t.Fatalf("expected no degraded conversions, got %d", unreliable)
	}
	// 2,560,000 UZS / 12,800 = 200 USD, minus the 100 USD payment.
	if got := debtOf(t, debts, "cl-1"); math.Abs(got-100) > 1e-9 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestClientDebtsCountIncomeMarkedAsDebtRepayment(t *testing.T) {
	snapshot := Snapshot{
		Clients: []Counterparty{{ID: "cl-1", Name: "Alpha Trading"}},
		Orders: []SaleOrder{{
			ID:             "so-1",
			CounterpartyID: "cl-1",
			Total:          500,
			PaymentMethod:  MethodDebt,
			PaymentStatus:  StatusUnpaid,
		}},
		Transactions: []LedgerTransaction{
			{ID: "tx-1", Kind: KindIncome, Amount: 150, Currency: CurrencyUSD, RelatedID: "cl-1", Description: "debt repayment"},
			// Plain income without the debt marker stays out of the balance.
			{ID: "tx-2", Kind: KindIncome, Amount: 999, Currency: CurrencyUSD, RelatedID: "cl-1", Description: "consulting"},
		},
		Settings: testSettings(),
	}

	debts, _ := NewReconciler(nil).ClientDebts(snapshot)
	if got := debtOf(t, debts, "cl-1"); math.Abs(got-350) > 1e-9 {
		t.Fatalf("expected 350, got %v", got)
	}
}

func TestClientDebtsSubtractDebtSettledReturns(t *testing.T) {
	snapshot := Snapshot{
		Clients: []Counterparty{{ID: "cl-1", Name: "Alpha Trading"}},
		Orders: []SaleOrder{{
			ID:             "so-1",
			CounterpartyID: "cl-1",
			Total:          200,
			PaymentMethod:  MethodDebt,
			PaymentStatus:  StatusUnpaid,
		}},
		Transactions: []LedgerTransaction{
			{ID: "tx-ret", Kind: KindClientReturn, Amount: 80, Currency: CurrencyUSD, Method: MethodDebt, RelatedID: "cl-1"},
			// A cash-settled return does not reduce the receivable.
			{ID: "tx-ret2", Kind: KindClientReturn, Amount: 50, Currency: CurrencyUSD, Method: MethodCash, RelatedID: "cl-1"},
		},
		Settings: testSettings(),
	}

	debts, _ := NewReconciler(nil).ClientDebts(snapshot)
	if got := debtOf(t, debts, "cl-1"); math.Abs(got-120) > 1e-9 {
		t.Fatalf("expected 120, got %v", got)
	}
}

func TestClientDebtsClampAtZero(t *testing.T) {
	snapshot := Snapshot{
		Clients: []Counterparty{{ID: "cl-1", Name: "Alpha Trading"}},
		Orders: []SaleOrder{{
			ID:             "so-1",
			CounterpartyID: "cl-1",
			Total:          100,
			PaymentMethod:  MethodDebt,
			PaymentStatus:  StatusUnpaid,
		}},
		Transactions: []LedgerTransaction{{
			ID:        "tx-1",
			Kind:      KindClientPayment,
			Amount:    250,
			Currency:  CurrencyUSD,
			RelatedID: "cl-1",
		}},
		Settings: testSettings(),
	}

	debts, _ := NewReconciler(nil).ClientDebts(snapshot)
	if got := debtOf(t, debts, "cl-1"); got != 0 {
		t.Fatalf("overpayment must clamp to zero, got %v", got)
	}
}

func TestSupplierDebtsMirrorPurchases(t *testing.T) {
	snapshot := Snapshot{
		Suppliers: []Counterparty{{ID: "sp-1", Name: "Delta Supply"}},
		Purchases: []Purchase{{
			ID:            "pu-1",
			SupplierID:    "sp-1",
			TotalInvoice:  1_000,
			AmountPaid:    400,
			PaymentStatus: StatusPartial,
		}},
		Transactions: []LedgerTransaction{{
			ID:        "tx-1",
			Kind:      KindSupplierPayment,
			Amount:    100,
			Currency:  CurrencyUSD,
			RelatedID: "sp-1",
		}},
		Settings: testSettings(),
	}

	debts, _ := NewReconciler(nil).SupplierDebts(snapshot)
	if got := debtOf(t, debts, "sp-1"); math.Abs(got-500) > 1e-9 {
		t.Fatalf("expected 500, got %v", got)
	}
}

func TestDebtsIgnoreSettledDocuments(t *testing.T) {
	snapshot := Snapshot{
		Clients: []Counterparty{{ID: "cl-1", Name: "Alpha Trading"}},
		Orders: []SaleOrder{{
			ID:             "so-1",
			CounterpartyID: "cl-1",
			Total:          100,
			AmountPaid:     100,
			PaymentStatus:  StatusPaid,
		}},
		Settings: testSettings(),
	}
	debts, _ := NewReconciler(nil).ClientDebts(snapshot)
	if got := debtOf(t, debts, "cl-1"); got != 0 {
		t.Fatalf("fully settled order must contribute nothing, got %v", got)
	}
}

func TestClientDebtsOrderIndependent(t *testing.T) {
	base := Snapshot{
		Clients: []Counterparty{
			{ID: "cl-1", Name: "Alpha Trading"},
			{ID: "cl-2", Name: "Beta Logistics"},
		},
		Orders: []SaleOrder{
			{ID: "so-1", CounterpartyID: "cl-1", Total: 300, PaymentMethod: MethodDebt, PaymentStatus: StatusUnpaid},
			{ID: "so-2", CounterpartyID: "cl-2", Total: 150, AmountPaid: 50, PaymentStatus: StatusPartial},
			{ID: "so-3", CounterpartyID: "cl-1", Total: 80, AmountPaid: 80, PaymentStatus: StatusPaid},
		},
		Transactions: []LedgerTransaction{
			{ID: "tx-1", Kind: KindClientPayment, Amount: 120, Currency: CurrencyUSD, RelatedID: "cl-1"},
			{ID: "tx-2", Kind: KindClientPayment, Amount: 25, Currency: CurrencyUSD, RelatedID: "cl-2"},
			{ID: "tx-3", Kind: KindClientReturn, Amount: 30, Currency: CurrencyUSD, Method: MethodDebt, RelatedID: "cl-1"},
		},
		Settings: testSettings(),
	}

	reconciler := NewReconciler(nil)
	want, _ := reconciler.ClientDebts(base)

	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 20; run++ {
		shuffled := base
		shuffled.Orders = append([]SaleOrder(nil), base.Orders...)
		shuffled.Transactions = append([]LedgerTransaction(nil), base.Transactions...)
		shuffled.Clients = append([]Counterparty(nil), base.Clients...)
		rng.Shuffle(len(shuffled.Orders), func(i, j int) {
			shuffled.Orders[i], shuffled.Orders[j] = shuffled.Orders[j], shuffled.Orders[i]
		})
		rng.Shuffle(len(shuffled.Transactions), func(i, j int) {
			shuffled.Transactions[i], shuffled.Transactions[j] = shuffled.Transactions[j], shuffled.Transactions[i]
		})
		rng.Shuffle(len(shuffled.Clients), func(i, j int) {
			shuffled.Clients[i], shuffled.Clients[j] = shuffled.Clients[j], shuffled.Clients[i]
		})

		got, _ := reconciler.ClientDebts(shuffled)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: result depends on input order\nwant %+v\ngot  %+v", run, want, got)
		}
	}
}
