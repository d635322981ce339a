package financehttp

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// handleExportCSV streams the balance sheet as CSV, one figure per row.
// Amounts are grouped with the English locale so spreadsheets import them
// the way the reports screen displays them.
func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.service.BalanceSheet(r.Context())
	if err != nil {
		h.logger.Error("export balance sheet", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="balance_sheet.csv"`)

	printer := message.NewPrinter(language.English)
	amount := func(v float64) string {
		return printer.Sprintf("%.2f", v)
	}

	writer := csv.NewWriter(w)
	rows := [][]string{
		{"section", "line", "amount_usd"},
		{"assets", "fixed_assets", amount(sheet.FixedAssetsValue)},
		{"assets", "inventory", amount(sheet.InventoryValue)},
		{"assets", "cash", amount(sheet.CashUSD)},
		{"assets", "bank", amount(sheet.NetBankUSD)},
		{"assets", "card", amount(sheet.NetCardUSD)},
		{"assets", "accounts_receivable", amount(sheet.AccountsReceivable)},
		{"assets", "total", amount(sheet.TotalAssets)},
		{"passives", "equity", amount(sheet.Equity)},
		{"passives", "fixed_assets_fund", amount(sheet.FixedAssetsFund)},
		{"passives", "retained_earnings", amount(sheet.RetainedEarnings)},
		{"passives", "vat_liability", amount(sheet.VATLiability)},
		{"passives", "accounts_payable", amount(sheet.AccountsPayable)},
		{"passives", "total", amount(sheet.TotalPassives)},
	}

	warehouses := make([]string, 0, len(sheet.InventoryByWH))
	for wh := range sheet.InventoryByWH {
		warehouses = append(warehouses, wh)
	}
	sort.Strings(warehouses)
	for _, wh := range warehouses {
		rows = append(rows, []string{"inventory", wh, amount(sheet.InventoryByWH[wh])})
	}

	for _, bucket := range sheet.CashBalances {
		rows = append(rows, []string{
			"cash_ledger",
			fmt.Sprintf("%s_%s", bucket.Method, bucket.Currency),
			amount(bucket.Balance),
		})
	}

	for _, c := range sheet.Corrections {
		rows = append(rows, []string{
			"correction",
			fmt.Sprintf("%s:%s", c.Kind, c.ID),
			amount(c.CorrectedAmount),
		})
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			h.logger.Error("write csv row", slog.Any("error", err))
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Error("flush csv", slog.Any("error", err))
	}
}
