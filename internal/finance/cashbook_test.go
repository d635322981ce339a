package finance

import (
	"math"
	"testing"
)

func bucketBalance(t *testing.T, balances []CashBalance, method PaymentMethod, currency string) float64 {
	t.Helper()
	for _, b := range balances {
		if b.Method == method && b.Currency == currency {
			return b.Balance
		}
	}
	t.Fatalf("bucket %s/%s missing from output", method, currency)
	return 0
}

func TestAggregateCashNetsInflowsAgainstOutflows(t *testing.T) {
	snapshot := Snapshot{
		Orders: []SaleOrder{{
			ID:              "so-1",
			Total:           500,
			AmountPaid:      500,
			PaymentMethod:   MethodCash,
			PaymentCurrency: CurrencyUSD,
			PaymentStatus:   StatusPaid,
		}},
		Expenses: []Expense{{
			ID:            "ex-1",
			Amount:        120,
			Currency:      CurrencyUSD,
			PaymentMethod: MethodCash,
		}},
		Settings: testSettings(),
	}

	balances, unreliable := AggregateCash(snapshot)
	if len(balances) != 4 {
		t.Fatalf("expected the four fixed buckets, got %d", len(balances))
	}
	if unreliable != 0 {
		t.Fatalf("expected no degraded conversions, got %d", unreliable)
	}
	if got := bucketBalance(t, balances, MethodCash, CurrencyUSD); math.Abs(got-380) > 1e-9 {
		t.Fatalf("cash/USD: expected 380, got %v", got)
	}
	if got := bucketBalance(t, balances, MethodBank, CurrencyUZS); got != 0 {
		t.Fatalf("bank/UZS should be untouched, got %v", got)
	}
}

func TestAggregateCashPrefersRecordedLocalTotal(t *testing.T) {
	snapshot := Snapshot{
		Orders: []SaleOrder{{
			ID:              "so-1",
			Total:           100,
			TotalUZS:        1_285_000,
			ExchangeRate:    12_850,
			AmountPaid:      100,
			PaymentMethod:   MethodBank,
			PaymentCurrency: CurrencyUZS,
			PaymentStatus:   StatusPaid,
		}},
		Settings: testSettings(),
	}
	balances, _ := AggregateCash(snapshot)
	if got := bucketBalance(t, balances, MethodBank, CurrencyUZS); got != 1_285_000 {
		t.Fatalf("fully paid order must use its recorded local total, got %v", got)
	}
}

func TestAggregateCashConvertsPartialLocalPayments(t *testing.T) {
	snapshot := Snapshot{
		Orders: []SaleOrder{{
			ID:              "so-1",
			Total:           200,
			AmountPaid:      50,
			ExchangeRate:    12_850,
			PaymentMethod:   MethodCash,
			PaymentCurrency: CurrencyUZS,
			PaymentStatus:   StatusPartial,
		}},
		Settings: testSettings(),
	}
	balances, unreliable := AggregateCash(snapshot)
	if unreliable != 0 {
		t.Fatalf("snapshot rate was usable, got %d degraded", unreliable)
	}
	if got := bucketBalance(t, balances, MethodCash, CurrencyUZS); math.Abs(got-50*12_850) > 1e-6 {
		t.Fatalf("partial payment must convert at the order rate, got %v", got)
	}
}

func TestAggregateCashSubtractsSupplierPayments(t *testing.T) {
	snapshot := Snapshot{
		Orders: []SaleOrder{{
			ID:              "so-1",
			AmountPaid:      1_000,
			PaymentMethod:   MethodCash,
			PaymentCurrency: CurrencyUSD,
			PaymentStatus:   StatusPaid,
		}},
		Transactions: []LedgerTransaction{
			{ID: "tx-1", Kind: KindSupplierPayment, Amount: 400, Currency: CurrencyUSD, Method: MethodCash},
			// Different channel, must not touch the cash/USD bucket.
			{ID: "tx-2", Kind: KindSupplierPayment, Amount: 999, Currency: CurrencyUZS, Method: MethodBank},
		},
		Settings: testSettings(),
	}
	balances, _ := AggregateCash(snapshot)
	if got := bucketBalance(t, balances, MethodCash, CurrencyUSD); got != 600 {
		t.Fatalf("cash/USD: expected 600, got %v", got)
	}
}

func TestAggregateCashClampsNegativeBuckets(t *testing.T) {
	snapshot := Snapshot{
		Expenses: []Expense{{
			ID:            "ex-1",
			Amount:        250,
			Currency:      CurrencyUSD,
			PaymentMethod: MethodCash,
		}},
		Settings: testSettings(),
	}
	balances, _ := AggregateCash(snapshot)
	if got := bucketBalance(t, balances, MethodCash, CurrencyUSD); got != 0 {
		t.Fatalf("over-drawn bucket must clamp to zero, got %v", got)
	}
}

func TestAggregateCashCountsDegradedConversions(t *testing.T) {
	settings := testSettings()
	settings.DefaultExchangeRate = 0
	snapshot := Snapshot{
		Orders: []SaleOrder{{
			ID:              "so-1",
			AmountPaid:      50,
			PaymentMethod:   MethodCash,
			PaymentCurrency: CurrencyUZS,
			PaymentStatus:   StatusPartial,
		}},
		Settings: settings,
	}
	balances, unreliable := AggregateCash(snapshot)
	if unreliable != 1 {
		t.Fatalf("expected 1 degraded conversion, got %d", unreliable)
	}
	if got := bucketBalance(t, balances, MethodCash, CurrencyUZS); got != 0 {
		t.Fatalf("unconvertible inflow must contribute zero, got %v", got)
	}
}
