package receipts

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/angelmondragon/storefront-core/internal/cart"
	"github.com/shopspring/decimal"
)

const (
	NumberPrefix      = "INV-"
	DefaultDateLayout = "01/02/2006, 15:04:05"
	currencySymbol    = "₾"
)

// Item is the simplified line stored on a receipt.
type Item struct {
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Stock    *int    `json:"stock,omitempty"`
}

// Receipt is an issued order confirmation.
type Receipt struct {
	Number string  `json:"receiptNumber"`
	Date   string  `json:"date"`
	Items  []Item  `json:"items"`
	Total  float64 `json:"total"`
}

// ComputeTotal sums quantity times unit price over lines. Lines are read only.
func ComputeTotal(lines []cart.Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		unit := decimal.NewFromFloat(line.UnitPrice())
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Issuer builds receipts with a date layout and time zone.
type Issuer struct {
	Layout   string
	Location *time.Location
}

// CreateReceipt issues a receipt with the default layout in ts's zone.
func CreateReceipt(lines []cart.Line, total decimal.Decimal, ts time.Time) Receipt {
	return Issuer{}.Create(lines, total, ts)
}

// Create snapshots lines into a receipt numbered after ts in milliseconds.
func (i Issuer) Create(lines []cart.Line, total decimal.Decimal, ts time.Time) Receipt {
	layout := i.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}
	if i.Location != nil {
		ts = ts.In(i.Location)
	}
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		item := Item{
			Quantity: line.Quantity,
			Price:    line.UnitPrice(),
		}
		if line.Product != nil {
			item.Title = line.Product.Title
			item.Image = line.Product.PrimaryImage()
			stock := line.Product.Stock
			item.Stock = &stock
		}
		items = append(items, item)
	}
	return Receipt{
		Number: NumberPrefix + strconv.FormatInt(ts.UnixMilli(), 10),
		Date:   ts.Format(layout),
		Items:  items,
		Total:  total.Round(2).InexactFloat64(),
	}
}

// RenderSummary prints a receipt as plain text.
func RenderSummary(rec Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Receipt #%s\n", rec.Number)
	fmt.Fprintf(&b, "Date: %s\n\n", rec.Date)

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Item\tQty\tPrice\tSubtotal")
	for _, item := range rec.Items {
		title := item.Title
		if title == "" {
			title = "-"
		}
		price := decimal.NewFromFloat(item.Price)
		subtotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		fmt.Fprintf(w, "%s\t%d\t%s %s\t%s %s\n",
			title, item.Quantity,
			price.StringFixed(2), currencySymbol,
			subtotal.StringFixed(2), currencySymbol)
	}
	_ = w.Flush()

	fmt.Fprintf(&b, "\nTotal: %s %s\n", decimal.NewFromFloat(rec.Total).StringFixed(2), currencySymbol)
	return b.String()
}
