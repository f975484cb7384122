// Package invoice génère la facture d'une commande : HTML avec QR de paiement,
// PDF via Chrome headless, archivage dans MinIO.
package invoice

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"pokestore_back_end/internal/models"
	"pokestore_back_end/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

type Config struct {
	StoreName    string
	StoreAddress string
	// UPIPayee : VPA du marchand (ex. pokestore@upi). Vide : le QR porte la référence de commande.
	UPIPayee string
}

// PaymentLink retourne le contenu encodé dans le QR de la facture
func PaymentLink(cfg Config, order models.Order) string {
	if cfg.UPIPayee == "" {
		return "ORDER-" + order.ID
	}

	q := url.Values{}
	q.Set("pa", cfg.UPIPayee)
	q.Set("pn", cfg.StoreName)
	q.Set("am", order.Total.StringFixed(2))
	q.Set("cu", "INR")
	q.Set("tn", "Order "+order.ShortID())
	return "upi://pay?" + q.Encode()
}

// PaymentQR : PNG base64 prêt pour <img src="...">
func PaymentQR(cfg Config, order models.Order) (string, error) {
	png, err := qrcode.Encode(PaymentLink(cfg, order), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

type invoiceData struct {
	Config
	Order   models.Order
	Summary pricing.Summary
	QR      template.URL
	Issued  string
}

func BuildHTML(cfg Config, order models.Order) (string, error) {
	qr, err := PaymentQR(cfg, order)
	if err != nil {
		return "", fmt.Errorf("QR facture: %w", err)
	}

	data := invoiceData{
		Config:  cfg,
		Order:   order,
		Summary: pricing.Summarize(order.Items, order.PaymentMethod),
		// data: URL générée ici, pas une entrée utilisateur
		QR:     template.URL(qr),
		Issued: order.CreatedAt.Format("02 Jan 2006"),
	}

	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template facture: %w", err)
	}
	return buf.String(), nil
}

type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

type Archiver interface {
	Store(ctx context.Context, orderID string, pdf []byte) (string, error)
}

// Service assemble HTML, PDF et archivage
type Service struct {
	cfg      Config
	renderer PDFRenderer
	archive  Archiver
	logger   *zap.Logger
}

func NewService(cfg Config, renderer PDFRenderer, archive Archiver, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, renderer: renderer, archive: archive, logger: logger}
}

func (s *Service) HTML(order models.Order) (string, error) {
	return BuildHTML(s.cfg, order)
}

// RenderInvoice produit le PDF ; l'archivage MinIO est best-effort
func (s *Service) RenderInvoice(ctx context.Context, order models.Order) ([]byte, error) {
	html, err := BuildHTML(s.cfg, order)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("rendu PDF facture %s: %w", order.ID, err)
	}
	s.logger.Debug("facture rendue", zap.String("order_id", order.ID), zap.Duration("took", time.Since(start)))

	if s.archive != nil {
		link, err := s.archive.Store(ctx, order.ID, pdf)
		if err != nil {
			s.logger.Warn("⚠️ archivage facture échoué", zap.String("order_id", order.ID), zap.Error(err))
		} else {
			s.logger.Info("🗄️ facture archivée", zap.String("order_id", order.ID), zap.String("url", link))
		}
	}
	return pdf, nil
}

var invoiceFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "Rs " + d.StringFixed(2) },
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(invoiceFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Invoice {{.Order.ShortID}}</title>
<style>
  body { font-family: 'Segoe UI', Arial, sans-serif; color: #333; margin: 40px; }
  h1 { color: #B56F76; margin: 0; }
  table { width: 100%; border-collapse: collapse; margin-top: 24px; }
  th, td { padding: 10px; border-bottom: 1px solid #e8e8e8; text-align: left; }
  td.num, th.num { text-align: right; }
  .totals td { border: none; }
  .header { display: flex; justify-content: space-between; align-items: flex-start; }
  .qr img { width: 140px; height: 140px; }
</style>
</head>
<body>
<div class="header">
  <div>
    <h1>{{.StoreName}}</h1>
    <p>{{.StoreAddress}}</p>
    <p><strong>Invoice</strong> #{{.Order.ShortID}}<br>Issued {{.Issued}}<br>Order {{.Order.ID}}</p>
  </div>
  <div class="qr"><img src="{{.QR}}" alt="payment QR"></div>
</div>

<p><strong>Billed to</strong><br>
{{.Order.CustomerInfo.Name}}<br>
{{.Order.CustomerInfo.Address}}, {{.Order.CustomerInfo.City}} - {{.Order.CustomerInfo.Pincode}}<br>
{{.Order.CustomerInfo.Email}} · {{.Order.CustomerInfo.Phone}}</p>

<table>
  <thead>
    <tr><th>Item</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Discount</th><th class="num">Amount</th></tr>
  </thead>
  <tbody>
  {{range .Summary.Lines}}
    <tr>
      <td>{{.Name}}</td>
      <td class="num">{{.Quantity}}</td>
      <td class="num">{{money .UnitPrice}}</td>
      <td class="num">{{if .DiscountPercent}}{{.DiscountPercent}}%{{else}}-{{end}}</td>
      <td class="num">{{money .NetTotal}}</td>
    </tr>
  {{end}}
  </tbody>
  <tbody class="totals">
    <tr><td colspan="4" class="num">Subtotal</td><td class="num">{{money .Summary.Subtotal}}</td></tr>
    {{if .Summary.Surcharge.IsPositive}}<tr><td colspan="4" class="num">Cash on delivery fee</td><td class="num">{{money .Summary.Surcharge}}</td></tr>{{end}}
    <tr><td colspan="4" class="num"><strong>Total</strong></td><td class="num"><strong>{{money .Order.Total}}</strong></td></tr>
  </tbody>
</table>
<p>Payment: {{if eq .Order.PaymentMethod "cod"}}cash on delivery{{else}}online{{end}}</p>
</body>
</html>`))
