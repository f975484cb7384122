package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"pokestore_back_end/internal/models"
	"pokestore_back_end/internal/pricing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var funcs = template.FuncMap{
	"money": Money,
	"date": func(o models.Order) string {
		return o.CreatedAt.Format("January 2, 2006 at 15:04")
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

// Money formate un montant en roupies : Rs 1,234.50
func Money(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%sRs %s.%s", sign, b.String(), frac)
}

type emailData struct {
	Store    string
	Order    models.Order
	Summary  pricing.Summary
	Previous models.OrderStatus
	Message  string
}

func (d *Dispatcher) data(order models.Order) emailData {
	return emailData{
		Store:   d.cfg.StoreName,
		Order:   order,
		Summary: pricing.Summarize(order.Items, order.PaymentMethod),
	}
}

func render(t *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func (d *Dispatcher) customerConfirmation(order models.Order) func(ctx context.Context) (Email, error) {
	return func(ctx context.Context) (Email, error) {
		html, err := render(customerTmpl, d.data(order))
		if err != nil {
			return Email{}, err
		}

		email := Email{
			To:      order.CustomerInfo.Email,
			Subject: fmt.Sprintf("Order Confirmation - Order #%s", order.ShortID()),
			HTML:    html,
		}

		// facture jointe si elle a pu être générée, sinon l'e-mail part sans
		if d.invoices != nil {
			pdf, err := d.invoices.RenderInvoice(ctx, order)
			if err != nil {
				d.logger.Warn("⚠️ facture non jointe", zap.String("order_id", order.ID), zap.Error(err))
			} else {
				email.Attachments = append(email.Attachments, Attachment{
					Name: fmt.Sprintf("invoice_%s.pdf", order.ShortID()),
					Data: pdf,
				})
			}
		}
		return email, nil
	}
}

func (d *Dispatcher) adminAlert(order models.Order) func(ctx context.Context) (Email, error) {
	return func(context.Context) (Email, error) {
		html, err := render(adminTmpl, d.data(order))
		if err != nil {
			return Email{}, err
		}
		return Email{
			To:      d.cfg.AdminEmail,
			Subject: fmt.Sprintf("🚨 New Order Alert - #%s from %s", order.ShortID(), order.CustomerInfo.Name),
			HTML:    html,
		}, nil
	}
}

func (d *Dispatcher) statusUpdate(order models.Order, previous models.OrderStatus) func(ctx context.Context) (Email, error) {
	return func(context.Context) (Email, error) {
		data := d.data(order)
		data.Previous = previous
		data.Message = statusMessage(order.Status)

		html, err := render(statusTmpl, data)
		if err != nil {
			return Email{}, err
		}
		return Email{
			To:      order.CustomerInfo.Email,
			Subject: statusSubject(order.Status, order.ShortID(), d.cfg.StoreName),
			HTML:    html,
		}, nil
	}
}

func statusSubject(status models.OrderStatus, shortID, store string) string {
	switch status {
	case models.OrderStatusConfirmed:
		return fmt.Sprintf("✅ Order #%s confirmed - %s", shortID, store)
	case models.OrderStatusCompleted:
		return fmt.Sprintf("🎉 Order #%s completed - %s", shortID, store)
	case models.OrderStatusCancelled:
		return fmt.Sprintf("❌ Order #%s cancelled - %s", shortID, store)
	default:
		return fmt.Sprintf("📋 Order #%s update - %s", shortID, store)
	}
}

func statusMessage(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusConfirmed:
		return "Good news! Your order has been confirmed and is being prepared."
	case models.OrderStatusCompleted:
		return "Your order is complete. Thank you for shopping with us!"
	case models.OrderStatusCancelled:
		return "Your order has been cancelled. Contact us if this is unexpected."
	default:
		return "Your order status has changed."
	}
}

const layoutHead = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Store}}</title>
</head>
<body style="margin:0;padding:0;font-family:'Segoe UI',Tahoma,Arial,sans-serif;background-color:#f7f7f7;color:#444;">
<table role="presentation" style="width:100%;border-collapse:collapse;background-color:#f7f7f7;">
<tr><td style="padding:32px 16px;">
<table role="presentation" style="max-width:600px;margin:0 auto;background-color:#ffffff;border-radius:12px;">
`

const layoutFoot = `</table>
</td></tr>
</table>
</body>
</html>`

const linesTable = `
<table role="presentation" style="width:100%;border-collapse:collapse;margin:16px 0;">
  {{range .Summary.Lines}}
  <tr>
    <td style="padding:12px;border-bottom:1px solid #e8e8e8;">
      <div style="font-weight:600;color:#B56F76;">{{.Name}}</div>
      <div style="font-size:14px;color:#777;">Quantity: {{.Quantity}} × {{money .UnitPrice}}{{if .DiscountPercent}} · {{.DiscountPercent}}% off{{end}}</div>
    </td>
    <td style="padding:12px;border-bottom:1px solid #e8e8e8;text-align:right;font-weight:600;">{{money .NetTotal}}</td>
  </tr>
  {{end}}
  {{if .Summary.Savings.IsPositive}}
  <tr><td style="padding:8px 12px;color:#2e7d32;">You saved</td><td style="padding:8px 12px;text-align:right;color:#2e7d32;">{{money .Summary.Savings}}</td></tr>
  {{end}}
  {{if .Summary.Surcharge.IsPositive}}
  <tr><td style="padding:8px 12px;">Cash on delivery fee</td><td style="padding:8px 12px;text-align:right;">{{money .Summary.Surcharge}}</td></tr>
  {{end}}
  <tr><td style="padding:12px;font-weight:700;">Total</td><td style="padding:12px;text-align:right;font-weight:700;">{{money .Order.Total}}</td></tr>
</table>`

const shippingBlock = `
<div style="background-color:#f8f9fa;border-radius:8px;padding:16px;margin:16px 0;font-size:14px;">
  <strong>Shipping to</strong><br>
  {{.Order.CustomerInfo.Name}}<br>
  {{.Order.CustomerInfo.Address}}<br>
  {{.Order.CustomerInfo.City}} - {{.Order.CustomerInfo.Pincode}}<br>
  📞 {{.Order.CustomerInfo.Phone}}
</div>`

var customerTmpl = template.Must(template.New("customer").Funcs(funcs).Parse(layoutHead + `
<tr><td style="background-color:#B56F76;padding:32px;text-align:center;border-radius:12px 12px 0 0;">
  <h1 style="margin:0;color:#ffffff;font-size:26px;">Thank you for your order!</h1>
  <p style="margin:8px 0 0;color:#ffffff;">Order #{{.Order.ShortID}} · {{date .Order}}</p>
</td></tr>
<tr><td style="padding:24px 32px;">
  <p>Hi {{.Order.CustomerInfo.Name}},</p>
  <p>We have received your order and will get it ready soon.
  Payment method: <strong>{{if eq .Order.PaymentMethod "cod"}}Cash on delivery{{else}}Online payment{{end}}</strong>.</p>
` + linesTable + shippingBlock + `
  <p style="margin-top:24px;">Cheers,<br><strong>The {{.Store}} team</strong></p>
</td></tr>
` + layoutFoot))

var adminTmpl = template.Must(template.New("admin").Funcs(funcs).Parse(layoutHead + `
<tr><td style="background-color:#d32f2f;padding:24px;text-align:center;border-radius:12px 12px 0 0;">
  <h1 style="margin:0;color:#ffffff;font-size:22px;">🚨 New order #{{.Order.ShortID}}</h1>
</td></tr>
<tr><td style="padding:24px 32px;">
  <p><strong>Order ID:</strong> {{.Order.ID}}<br>
  <strong>Placed:</strong> {{date .Order}}<br>
  <strong>Payment:</strong> {{.Order.PaymentMethod}}<br>
  <strong>Items:</strong> {{.Summary.ItemCount}}</p>
  <p><strong>Customer:</strong> {{.Order.CustomerInfo.Name}} · {{.Order.CustomerInfo.Email}}</p>
` + linesTable + shippingBlock + `
</td></tr>
` + layoutFoot))

var statusTmpl = template.Must(template.New("status").Funcs(funcs).Parse(layoutHead + `
<tr><td style="background-color:#667eea;padding:32px;text-align:center;border-radius:12px 12px 0 0;">
  <h1 style="margin:0;color:#ffffff;font-size:24px;">Order #{{.Order.ShortID}}</h1>
  <p style="margin:8px 0 0;color:#ffffff;">{{title (printf "%s" .Order.Status)}}</p>
</td></tr>
<tr><td style="padding:24px 32px;">
  <p>Hi {{.Order.CustomerInfo.Name}},</p>
  <p>{{.Message}}</p>
  <p style="font-size:14px;color:#777;">Status: {{.Previous}} → {{.Order.Status}}</p>
  <p><strong>Total:</strong> {{money .Order.Total}}</p>
  <p style="margin-top:24px;">Cheers,<br><strong>The {{.Store}} team</strong></p>
</td></tr>
` + layoutFoot))
