package finance

import "github.com/meridian-erp/meridian-erp/internal/finance/fx"

// Compose assembles the balance sheet from the corrected snapshot, the cash
// buckets and the reconciled totals. Retained earnings are solved as the
// balancing residual, so TotalAssets equals TotalPassives by construction;
// divergence can only come from inconsistent inputs. Missing or zero inputs
// propagate as zeros; Compose never fails.
func Compose(s Snapshot, cash []CashBalance, receivables, payables float64, corrections []Correction) (BalanceSheet, int) {
	sheet := BalanceSheet{
		CashBalances:       cash,
		AccountsReceivable: receivables,
		AccountsPayable:    payables,
		Corrections:        corrections,
		InventoryByWH:      make(map[string]float64),
	}
	unreliable := 0

	for _, p := range s.Products {
		value := p.Quantity * p.CostPrice
		sheet.InventoryValue += value
		sheet.InventoryByWH[p.Warehouse] += value
	}

	for _, a := range s.FixedAssets {
		sheet.FixedAssetsValue += a.BookValue
	}
	// The passives-side fund mirrors the asset register's book value.
	sheet.FixedAssetsFund = sheet.FixedAssetsValue

	rate := s.Settings.DefaultExchangeRate
	for _, bucket := range cash {
		usd, ok := fx.ToUSD(bucket.Balance, bucket.Currency, 0, rate)
		if !ok {
			unreliable++
		}
		switch bucket.Method {
		case MethodCash:
			sheet.CashUSD += usd
		case MethodBank:
			sheet.NetBankUSD += usd
		case MethodCard:
			sheet.NetCardUSD += usd
		}
	}

	for _, o := range s.Orders {
		sheet.VATOutput += o.VATAmount
	}
	for _, p := range s.Purchases {
		sheet.VATInput += p.VATAmount
	}
	// An input credit exceeding output is not presented as a negative liability.
	sheet.VATLiability = ClampNonNegative(sheet.VATOutput - sheet.VATInput)

	sheet.Equity = s.Settings.EquityCapital
	sheet.TotalAssets = sheet.FixedAssetsValue + sheet.InventoryValue +
		sheet.CashUSD + sheet.NetBankUSD + sheet.NetCardUSD + sheet.AccountsReceivable
	sheet.RetainedEarnings = sheet.TotalAssets -
		(sheet.Equity + sheet.FixedAssetsFund + sheet.VATLiability + sheet.AccountsPayable)
	sheet.TotalPassives = sheet.Equity + sheet.FixedAssetsFund +
		sheet.RetainedEarnings + sheet.VATLiability + sheet.AccountsPayable

	return sheet, unreliable
}
