package resources

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LocationsPath        = "/inventory/location/"
	DeliveryOrdersPath   = "/inventory/delivery-order/"
	IncomingProductsPath = "/inventory/incoming-product/"
	StockAdjustmentsPath = "/inventory/stock-adjustment/"
	InvoicesPath         = "/invoice/"
)

// Document statuses shared by orders, receipts, adjustments and invoices.
const (
	StatusDraft     = "draft"
	StatusConfirmed = "confirmed"
	StatusDone      = "done"
	StatusCancelled = "cancelled"
)

// Actions accepted on document detail routes.
const (
	ActionConfirm  = "confirm"
	ActionValidate = "validate"
	ActionCancel   = "cancel"
)

type Location struct {
	ID       string `json:"id,omitempty"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	IsActive bool   `json:"is_active"`
}

// Line is a product line on a stock document.
type Line struct {
	ProductID   string          `json:"product_id"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

type DeliveryOrder struct {
	ID           string     `json:"id,omitempty"`
	Reference    string     `json:"reference"`
	CustomerName string     `json:"customer_name"`
	LocationID   string     `json:"location_id"`
	Status       string     `json:"status,omitempty"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	Lines        []Line     `json:"lines"`
}

type IncomingProduct struct {
	ID           string     `json:"id,omitempty"`
	Reference    string     `json:"reference"`
	SupplierName string     `json:"supplier_name"`
	LocationID   string     `json:"location_id"`
	Status       string     `json:"status,omitempty"`
	ExpectedAt   *time.Time `json:"expected_at,omitempty"`
	Lines        []Line     `json:"lines"`
}

// StockAdjustment corrects the on-hand quantity of one product at one
// location. Quantity is signed.
type StockAdjustment struct {
	ID         string          `json:"id,omitempty"`
	LocationID string          `json:"location_id"`
	ProductID  string          `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reason     string          `json:"reason"`
	Status     string          `json:"status,omitempty"`
}

type InvoiceLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// Amount is Quantity * UnitPrice, before tax.
func (l InvoiceLine) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

type Invoice struct {
	ID           string        `json:"id,omitempty"`
	Number       string        `json:"number"`
	CustomerName string        `json:"customer_name"`
	Currency     string        `json:"currency"`
	Status       string        `json:"status,omitempty"`
	IssuedAt     *time.Time    `json:"issued_at,omitempty"`
	Lines        []InvoiceLine `json:"lines"`
}

// Subtotal sums line amounts for display. The backend's own totals are
// authoritative.
func (inv Invoice) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range inv.Lines {
		total = total.Add(l.Amount())
	}
	return total
}

// Tax sums Amount * TaxRate over lines, rounded to two places.
func (inv Invoice) Tax() decimal.Decimal {
	total := decimal.Zero
	for _, l := range inv.Lines {
		total = total.Add(l.Amount().Mul(l.TaxRate))
	}
	return total.Round(2)
}
