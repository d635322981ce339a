package finance

import "github.com/meridian-erp/meridian-erp/internal/finance/fx"

// cashBucketsOfInterest fixes the (method, currency) pairs the cash ledger
// tracks, in presentation order.
var cashBucketsOfInterest = []struct {
	Method   PaymentMethod
	Currency string
}{
	{MethodCash, CurrencyUSD},
	{MethodCash, CurrencyUZS},
	{MethodBank, CurrencyUZS},
	{MethodCard, CurrencyUZS},
}

// AggregateCash buckets inflows (paid orders) against outflows (expenses and
// supplier payments) per payment channel and currency. Expects the corrected
// snapshot view. Each balance is clamped at zero; the second return value
// counts inputs whose currency conversion degraded to zero.
func AggregateCash(s Snapshot) ([]CashBalance, int) {
	balances := make([]CashBalance, 0, len(cashBucketsOfInterest))
	unreliable := 0

	for _, bucket := range cashBucketsOfInterest {
		var balance float64

		for _, o := range s.Orders {
			if o.PaymentMethod != bucket.Method || o.PaymentCurrency != bucket.Currency {
				continue
			}
			if o.AmountPaid <= 0 {
				continue
			}
			inflow, ok := orderInflow(o, bucket.Currency, s.Settings.DefaultExchangeRate)
			if !ok {
				unreliable++
				continue
			}
			balance += inflow
		}

		for _, e := range s.Expenses {
			if e.PaymentMethod != bucket.Method || e.Currency != bucket.Currency {
				continue
			}
			balance -= e.Amount
		}

		for _, tx := range s.Transactions {
			if tx.Kind != KindSupplierPayment {
				continue
			}
			if tx.Method != bucket.Method || tx.Currency != bucket.Currency {
				continue
			}
			balance -= tx.Amount
		}

		balances = append(balances, CashBalance{
			Method:   bucket.Method,
			Currency: bucket.Currency,
			Balance:  ClampNonNegative(balance),
		})
	}

	return balances, unreliable
}

// orderInflow resolves the order's contribution in the bucket currency. USD
// buckets take the USD amount paid directly. Local buckets prefer the recorded
// local total of a fully paid order and otherwise convert the USD amount paid
// through the order's snapshot rate.
func orderInflow(o SaleOrder, currency string, defaultRate float64) (float64, bool) {
	if currency == CurrencyUSD {
		return o.AmountPaid, true
	}
	if o.PaymentStatus == StatusPaid && o.TotalUZS > 0 {
		return o.TotalUZS, true
	}
	return fx.FromUSD(o.AmountPaid, currency, o.ExchangeRate, defaultRate)
}
