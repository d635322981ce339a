package finance

import (
	"errors"
	"time"
)

// Currency codes used across the event streams.
const (
	CurrencyUSD = "USD"
	CurrencyUZS = "UZS"
)

// PaymentMethod enumerates settlement channels.
type PaymentMethod string

const (
	MethodCash  PaymentMethod = "cash"
	MethodBank  PaymentMethod = "bank"
	MethodCard  PaymentMethod = "card"
	MethodDebt  PaymentMethod = "debt"
	MethodMixed PaymentMethod = "mixed"
)

// PaymentStatus enumerates order/purchase payment states.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPartial PaymentStatus = "partial"
	StatusUnpaid  PaymentStatus = "unpaid"
)

// TransactionKind enumerates ledger transaction types.
type TransactionKind string

const (
	KindSupplierPayment TransactionKind = "supplier_payment"
	KindClientPayment   TransactionKind = "client_payment"
	KindClientRefund    TransactionKind = "client_refund"
	KindClientReturn    TransactionKind = "client_return"
	KindDebtObligation  TransactionKind = "debt_obligation"
	KindIncome          TransactionKind = "income"
)

// OrderItem is a sale order line.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// SaleOrder model. Money fields are USD unless suffixed otherwise.
// Immutable once created except for the payment-state fields.
type SaleOrder struct {
	ID               string        `json:"id" db:"id"`
	Date             time.Time     `json:"date" db:"order_date"`
	CounterpartyID   string        `json:"counterparty_id" db:"counterparty_id"`
	CounterpartyName string        `json:"counterparty_name" db:"counterparty_name"`
	Items            []OrderItem   `json:"items" db:"items"`
	Subtotal         float64       `json:"subtotal" db:"subtotal"`
	VATAmount        float64       `json:"vat_amount" db:"vat_amount"`
	Total            float64       `json:"total" db:"total"`
	TotalUZS         float64       `json:"total_uzs" db:"total_uzs"`
	ExchangeRate     float64       `json:"exchange_rate" db:"exchange_rate"`
	PaymentMethod    PaymentMethod `json:"payment_method" db:"payment_method"`
	PaymentCurrency  string        `json:"payment_currency" db:"payment_currency"`
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`
	AmountPaid       float64       `json:"amount_paid" db:"amount_paid"`
}

// Outstanding returns the unpaid remainder of the order, clamped at zero.
func (o SaleOrder) Outstanding() float64 {
	return ClampNonNegative(o.Total - o.AmountPaid)
}

// LandedCostItem is a purchase line including allocated overheads.
type LandedCostItem struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	LandedCost float64 `json:"landed_cost"`
}

// Purchase model. Same payment-state mutability as SaleOrder.
type Purchase struct {
	ID            string           `json:"id" db:"id"`
	Date          time.Time        `json:"date" db:"purchase_date"`
	SupplierID    string           `json:"supplier_id" db:"supplier_id"`
	SupplierName  string           `json:"supplier_name" db:"supplier_name"`
	Items         []LandedCostItem `json:"items" db:"items"`
	VATAmount     float64          `json:"vat_amount" db:"vat_amount"`
	TotalInvoice  float64          `json:"total_invoice" db:"total_invoice"`
	AmountPaid    float64          `json:"amount_paid" db:"amount_paid"`
	PaymentStatus PaymentStatus    `json:"payment_status" db:"payment_status"`
}

// Outstanding returns the unpaid remainder of the purchase, clamped at zero.
func (p Purchase) Outstanding() float64 {
	return ClampNonNegative(p.TotalInvoice - p.AmountPaid)
}

// Expense model. Immutable after creation.
type Expense struct {
	ID            string        `json:"id" db:"id"`
	Date          time.Time     `json:"date" db:"expense_date"`
	Category      string        `json:"category" db:"category"`
	Amount        float64       `json:"amount" db:"amount"`
	Currency      string        `json:"currency" db:"currency"`
	ExchangeRate  float64       `json:"exchange_rate" db:"exchange_rate"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
}

// LedgerTransaction model. Append-only.
type LedgerTransaction struct {
	ID           string          `json:"id" db:"id"`
	Date         time.Time       `json:"date" db:"tx_date"`
	Kind         TransactionKind `json:"kind" db:"kind"`
	Amount       float64         `json:"amount" db:"amount"`
	Currency     string          `json:"currency" db:"currency"`
	ExchangeRate float64         `json:"exchange_rate" db:"exchange_rate"`
	Method       PaymentMethod   `json:"method" db:"method"`
	RelatedID    string          `json:"related_id" db:"related_id"`
	Description  string          `json:"description" db:"description"`
}

// Counterparty model (client or supplier). TotalDebt is a derived figure and
// is never trusted as a stored source of truth.
type Counterparty struct {
	ID          string  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	CompanyName string  `json:"company_name" db:"company_name"`
	TotalDebt   float64 `json:"total_debt" db:"total_debt"`
}

// Product carries the valuation inputs for inventory.
type Product struct {
	ID        string  `json:"id" db:"id"`
	Quantity  float64 `json:"quantity" db:"quantity"`
	CostPrice float64 `json:"cost_price" db:"cost_price"`
	Warehouse string  `json:"warehouse" db:"warehouse"`
}

// FixedAsset carries the current book value supplied by the asset register.
type FixedAsset struct {
	ID        string  `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	BookValue float64 `json:"book_value" db:"book_value"`
}

// Settings holds the engine tuning figures. DefaultExchangeRate is local
// currency units per USD. EquityCapital is the externally configured invested
// capital consumed by the balance sheet composer.
type Settings struct {
	VATRate             float64           `json:"vat_rate"`
	DefaultExchangeRate float64           `json:"default_exchange_rate"`
	AnomalyThreshold    float64           `json:"anomaly_threshold"`
	EquityCapital       float64           `json:"equity_capital"`
	CategoryBuckets     map[string]string `json:"category_buckets"`
}

// Snapshot is the immutable input to one engine run. The engine only reads it;
// derived values are returned, never written back into the snapshot.
type Snapshot struct {
	Orders       []SaleOrder         `json:"orders"`
	Purchases    []Purchase          `json:"purchases"`
	Expenses     []Expense           `json:"expenses"`
	Transactions []LedgerTransaction `json:"transactions"`
	Clients      []Counterparty      `json:"clients"`
	Suppliers    []Counterparty      `json:"suppliers"`
	Products     []Product           `json:"products"`
	FixedAssets  []FixedAsset        `json:"fixed_assets"`
	Settings     Settings            `json:"settings"`
}

// SubjectKind tags the record type a correction applies to.
type SubjectKind string

const (
	SubjectOrder       SubjectKind = "order"
	SubjectTransaction SubjectKind = "transaction"
	SubjectExpense     SubjectKind = "expense"
)

// Correction is a derived, ephemeral adjustment applied to an implausible
// monetary value before aggregation. The source record stays untouched.
type Correction struct {
	ID              string      `json:"id"`
	Kind            SubjectKind `json:"kind"`
	Reason          string      `json:"reason"`
	OriginalAmount  float64     `json:"original_amount"`
	CorrectedAmount float64     `json:"corrected_amount"`
}

// DebtSide distinguishes receivable from payable counterparties.
type DebtSide string

const (
	SideClient   DebtSide = "client"
	SideSupplier DebtSide = "supplier"
)

// RecalculatedDebt is the derived outstanding balance for one counterparty,
// surfaced for optional write-back by the caller.
type RecalculatedDebt struct {
	CounterpartyID string   `json:"counterparty_id"`
	Name           string   `json:"name"`
	Side           DebtSide `json:"side"`
	Debt           float64  `json:"debt"`
}

// CashBalance is one (method, currency) bucket of the cash ledger.
type CashBalance struct {
	Method   PaymentMethod `json:"method"`
	Currency string        `json:"currency"`
	Balance  float64       `json:"balance"`
}

// BalanceSheet is the derived sheet. All figures are USD and non-negative
// except RetainedEarnings, which is solved as the balancing residual.
type BalanceSheet struct {
	InventoryValue     float64            `json:"inventory_value"`
	InventoryByWH      map[string]float64 `json:"inventory_by_warehouse"`
	CashBalances       []CashBalance      `json:"cash_balances"`
	CashUSD            float64            `json:"cash_usd"`
	NetBankUSD         float64            `json:"net_bank_usd"`
	NetCardUSD         float64            `json:"net_card_usd"`
	AccountsReceivable float64            `json:"accounts_receivable"`
	AccountsPayable    float64            `json:"accounts_payable"`
	VATOutput          float64            `json:"vat_output"`
	VATInput           float64            `json:"vat_input"`
	VATLiability       float64            `json:"vat_liability"`
	FixedAssetsValue   float64            `json:"fixed_assets_value"`
	FixedAssetsFund    float64            `json:"fixed_assets_fund"`
	Equity             float64            `json:"equity"`
	RetainedEarnings   float64            `json:"retained_earnings"`
	TotalAssets        float64            `json:"total_assets"`
	TotalPassives      float64            `json:"total_passives"`
	Corrections        []Correction       `json:"corrections"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

var (
	// ErrSnapshotUnavailable occurs when the event source cannot be read.
	ErrSnapshotUnavailable = errors.New("finance: snapshot unavailable")
)
