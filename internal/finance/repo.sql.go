package finance

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// LoadSnapshot fetches the event streams and master data concurrently and
// assembles the immutable engine input. Every query reads committed state as
// of its own statement; the engine tolerates the streams being fetched at
// slightly different instants because it is a read-side projection.
func (r *Repository) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	var snapshot Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := r.loadOrders(gctx)
		if err != nil {
			return fmt.Errorf("finance: load orders: %w", err)
		}
		snapshot.Orders = orders
		return nil
	})
	g.Go(func() error {
		purchases, err := r.loadPurchases(gctx)
		if err != nil {
			return fmt.Errorf("finance: load purchases: %w", err)
		}
		snapshot.Purchases = purchases
		return nil
	})
	g.Go(func() error {
		expenses, err := r.loadExpenses(gctx)
		if err != nil {
			return fmt.Errorf("finance: load expenses: %w", err)
		}
		snapshot.Expenses = expenses
		return nil
	})
	g.Go(func() error {
		txs, err := r.loadTransactions(gctx)
		if err != nil {
			return fmt.Errorf("finance: load transactions: %w", err)
		}
		snapshot.Transactions = txs
		return nil
	})
	g.Go(func() error {
		clients, err := r.loadCounterparties(gctx, "client")
		if err != nil {
			return fmt.Errorf("finance: load clients: %w", err)
		}
		snapshot.Clients = clients
		return nil
	})
	g.Go(func() error {
		suppliers, err := r.loadCounterparties(gctx, "supplier")
		if err != nil {
			return fmt.Errorf("finance: load suppliers: %w", err)
		}
		snapshot.Suppliers = suppliers
		return nil
	})
	g.Go(func() error {
		products, err := r.loadProducts(gctx)
		if err != nil {
			return fmt.Errorf("finance: load products: %w", err)
		}
		snapshot.Products = products
		return nil
	})
	g.Go(func() error {
		assets, err := r.loadFixedAssets(gctx)
		if err != nil {
			return fmt.Errorf("finance: load fixed assets: %w", err)
		}
		snapshot.FixedAssets = assets
		return nil
	})
	g.Go(func() error {
		settings, err := r.loadSettings(gctx)
		if err != nil {
			return fmt.Errorf("finance: load settings: %w", err)
		}
		snapshot.Settings = settings
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *Repository) loadOrders(ctx context.Context) ([]SaleOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_date, COALESCE(counterparty_id, ''), counterparty_name,
		       COALESCE(items, '[]'::jsonb), subtotal, vat_amount, total,
		       COALESCE(total_uzs, 0), COALESCE(exchange_rate, 0),
		       payment_method, payment_currency, payment_status, amount_paid
		FROM sale_orders`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []SaleOrder
	for rows.Next() {
		var o SaleOrder
		var items []byte
		if err := rows.Scan(&o.ID, &o.Date, &o.CounterpartyID, &o.CounterpartyName,
			&items, &o.Subtotal, &o.VATAmount, &o.Total,
			&o.TotalUZS, &o.ExchangeRate,
			&o.PaymentMethod, &o.PaymentCurrency, &o.PaymentStatus, &o.AmountPaid); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *Repository) loadPurchases(ctx context.Context) ([]Purchase, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, purchase_date, COALESCE(supplier_id, ''), supplier_name,
		       COALESCE(items, '[]'::jsonb), COALESCE(vat_amount, 0),
		       total_invoice, amount_paid, payment_status
		FROM purchases`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		var items []byte
		if err := rows.Scan(&p.ID, &p.Date, &p.SupplierID, &p.SupplierName,
			&items, &p.VATAmount, &p.TotalInvoice, &p.AmountPaid, &p.PaymentStatus); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &p.Items); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (r *Repository) loadExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, expense_date, category, amount, currency,
		       COALESCE(exchange_rate, 0), payment_method
		FROM expenses`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Category, &e.Amount, &e.Currency,
			&e.ExchangeRate, &e.PaymentMethod); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *Repository) loadTransactions(ctx context.Context) ([]LedgerTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tx_date, kind, amount, currency, COALESCE(exchange_rate, 0),
		       COALESCE(method, ''), COALESCE(related_id, ''), COALESCE(description, '')
		FROM ledger_transactions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []LedgerTransaction
	for rows.Next() {
		var tx LedgerTransaction
		if err := rows.Scan(&tx.ID, &tx.Date, &tx.Kind, &tx.Amount, &tx.Currency,
			&tx.ExchangeRate, &tx.Method, &tx.RelatedID, &tx.Description); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *Repository) loadCounterparties(ctx context.Context, role string) ([]Counterparty, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(company_name, ''), COALESCE(total_debt, 0)
		FROM counterparties
		WHERE role = $1`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []Counterparty
	for rows.Next() {
		var c Counterparty
		if err := rows.Scan(&c.ID, &c.Name, &c.CompanyName, &c.TotalDebt); err != nil {
			return nil, err
		}
		parties = append(parties, c)
	}
	return parties, rows.Err()
}

func (r *Repository) loadProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quantity, cost_price, COALESCE(warehouse, '') FROM products`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Quantity, &p.CostPrice, &p.Warehouse); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) loadFixedAssets(ctx context.Context) ([]FixedAsset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, book_value FROM fixed_assets`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []FixedAsset
	for rows.Next() {
		var a FixedAsset
		if err := rows.Scan(&a.ID, &a.Name, &a.BookValue); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *Repository) loadSettings(ctx context.Context) (Settings, error) {
	var s Settings
	var buckets []byte
	err := r.pool.QueryRow(ctx, `
		SELECT vat_rate, default_exchange_rate, COALESCE(anomaly_threshold, 0),
		       COALESCE(equity_capital, 0), COALESCE(category_buckets, '{}'::jsonb)
		FROM settings
		ORDER BY updated_at DESC
		LIMIT 1`).Scan(&s.VATRate, &s.DefaultExchangeRate, &s.AnomalyThreshold,
		&s.EquityCapital, &buckets)
	if err != nil {
		return Settings{}, err
	}
	if err := json.Unmarshal(buckets, &s.CategoryBuckets); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// SaveRecalculatedDebts writes derived balances back onto the counterparty
// store. Last-write-wins by design: the stored figure is a display cache, the
// engine remains the source of truth.
func (r *Repository) SaveRecalculatedDebts(ctx context.Context, debts []RecalculatedDebt) error {
	for _, d := range debts {
		if d.CounterpartyID == "" {
			continue
		}
		if _, err := r.pool.Exec(ctx, `
			UPDATE counterparties SET total_debt = $2, debt_recalculated_at = now()
			WHERE id = $1`, d.CounterpartyID, d.Debt); err != nil {
			return err
		}
	}
	return nil
}

// SaveCorrections appends correction records for display. The corrected source
// records themselves are never touched.
func (r *Repository) SaveCorrections(ctx context.Context, corrections []Correction) error {
	for _, c := range corrections {
		if _, err := r.pool.Exec(ctx, `
			INSERT INTO corrections (subject_id, subject_kind, reason, original_amount, corrected_amount, created_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (subject_id, subject_kind) DO UPDATE
			SET reason = EXCLUDED.reason,
			    original_amount = EXCLUDED.original_amount,
			    corrected_amount = EXCLUDED.corrected_amount`,
			c.ID, c.Kind, c.Reason, c.OriginalAmount, c.CorrectedAmount); err != nil {
			return err
		}
	}
	return nil
}
