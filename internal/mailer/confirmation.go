package mailer

import (
	"fmt"
	"html"
	"strings"

	"parfumerie/internal/domain"
)

// OrderConfirmation renders the confirmation message for a freshly
// paid or COD-created order
func OrderConfirmation(shopName, from string, order *domain.Order) Message {
	var b strings.Builder

	fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(shopName))
	fmt.Fprintf(&b, "<p>Thank you, %s. Your order #%d is confirmed.</p>",
		html.EscapeString(order.CustomerName), order.Number)

	b.WriteString("<table><tr><th>Item</th><th>Qty</th><th>Price</th></tr>")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<tr><td>%s %s</td><td>%d</td><td>%d</td></tr>",
			html.EscapeString(item.ProductName),
			html.EscapeString(item.VariantName),
			item.Quantity,
			item.LineTotal(),
		)
	}
	b.WriteString("</table>")

	fmt.Fprintf(&b, "<p>Subtotal: %d<br>Discount: %d<br>Shipping: %d<br><strong>Total: %d</strong></p>",
		order.Subtotal, order.Discount, order.ShippingFee, order.Total)
	fmt.Fprintf(&b, "<p>Shipping to: %s</p>", html.EscapeString(order.ShippingAddress))
	fmt.Fprintf(&b, "<p>Payment: %s (%s)</p>",
		html.EscapeString(order.PaymentMethod), order.PaymentStatus)

	return Message{
		From:    from,
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("%s order #%d confirmed", shopName, order.Number),
		HTML:    b.String(),
	}
}
