package notifications

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/pkg/types"
)

const InvoiceContentType = "text/plain; charset=utf-8"

// InvoiceOrder is the order header printed above the snapshot lines.
type InvoiceOrder struct {
	ID          uuid.UUID
	ContactName string
	Contact     string
	Address     string
	CreatedAt   time.Time
}

func InvoiceFilename(orderID uuid.UUID) string {
	return fmt.Sprintf("invoice-%s.txt", orderID)
}

// RenderInvoice prints a plain-text invoice from the order snapshot. Output is
// deterministic for a given snapshot and header.
func RenderInvoice(snapshot types.OrderSnapshot, order InvoiceOrder) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HANDCAR INVOICE\n")
	fmt.Fprintf(&buf, "Order:    %s\n", order.ID)
	fmt.Fprintf(&buf, "Date:     %s\n", order.CreatedAt.UTC().Format("2006-01-02"))
	fmt.Fprintf(&buf, "Customer: %s\n", order.ContactName)
	fmt.Fprintf(&buf, "Contact:  %s\n", order.Contact)
	fmt.Fprintf(&buf, "Ship to:  %s\n\n", order.Address)

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Item\tQty\tUnit\tTotal\t")
	for _, line := range snapshot.Items {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t\n", line.Name, line.Quantity, line.UnitPrice, line.LineTotal)
	}
	_ = w.Flush()

	fmt.Fprintf(&buf, "\nSubtotal: %s %s\n", snapshot.Subtotal, snapshot.Currency)
	if snapshot.Coupon != nil {
		fmt.Fprintf(&buf, "Discount (%s): -%s %s\n", snapshot.Coupon.Code, snapshot.Discount, snapshot.Currency)
	}
	fmt.Fprintf(&buf, "Total:    %s %s\n", snapshot.Total, snapshot.Currency)
	return buf.Bytes()
}
