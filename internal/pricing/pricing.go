// Package pricing est l'unique endroit où un prix de ligne ou de commande est calculé.
//
// Fiche produit, panier, websocket, checkout, e-mails et facture passent tous par
// ComputeLineTotal / Summarize : personne d'autre ne multiplie prix × quantité.
package pricing

import (
	"pokestore_back_end/internal/models"

	"github.com/shopspring/decimal"
)

const BoosterCategory = "booster"

// CODSurchargeAmount : frais fixes du paiement à la livraison
const CODSurchargeAmount = 200

var (
	hundred      = decimal.NewFromInt(100)
	codSurcharge = decimal.NewFromInt(CODSurchargeAmount)
)

// paliers booster, du plus haut au plus bas
var boosterTiers = []struct {
	minQuantity int
	percent     int
}{
	{minQuantity: 5, percent: 15},
	{minQuantity: 3, percent: 10},
}

type LineTotal struct {
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	GrossTotal      decimal.Decimal `json:"gross_total"`
	DiscountPercent int             `json:"discount_percent"`
	NetTotal        decimal.Decimal `json:"net_total"`
	Savings         decimal.Decimal `json:"savings"`
}

// DiscountPercent ne s'applique qu'à la catégorie booster
func DiscountPercent(category string, quantity int) int {
	if category != BoosterCategory {
		return 0
	}
	for _, t := range boosterTiers {
		if quantity >= t.minQuantity {
			return t.percent
		}
	}
	return 0
}

// ComputeLineTotal calcule le prix facturé pour une ligne.
// Le brut est exact ; seul un net remisé est arrondi à 2 décimales.
func ComputeLineTotal(category string, unitPrice decimal.Decimal, quantity int) LineTotal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	percent := DiscountPercent(category, quantity)

	net := gross
	if percent > 0 {
		net = gross.Mul(decimal.NewFromInt(int64(100 - percent))).Div(hundred).Round(2)
	}

	return LineTotal{
		UnitPrice:       unitPrice,
		Quantity:        quantity,
		GrossTotal:      gross,
		DiscountPercent: percent,
		NetTotal:        net,
		Savings:         gross.Sub(net),
	}
}

func LineFor(item models.CartItem) LineTotal {
	return ComputeLineTotal(item.Category, item.UnitPrice, item.Quantity)
}

func Surcharge(method models.PaymentMethod) decimal.Decimal {
	if method == models.PaymentMethodCOD {
		return codSurcharge
	}
	return decimal.Zero
}

// SummaryLine associe une ligne de panier à son calcul
type SummaryLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	LineTotal
}

type Summary struct {
	Lines         []SummaryLine        `json:"lines"`
	ItemCount     int                  `json:"item_count"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Savings       decimal.Decimal      `json:"savings"`
	Surcharge     decimal.Decimal      `json:"surcharge"`
	Total         decimal.Decimal      `json:"total"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// Summarize est la forme affichable du total de commande
func Summarize(items []models.CartItem, method models.PaymentMethod) Summary {
	s := Summary{
		Lines:         make([]SummaryLine, 0, len(items)),
		Subtotal:      decimal.Zero,
		Savings:       decimal.Zero,
		Surcharge:     Surcharge(method),
		PaymentMethod: method,
	}

	for _, item := range items {
		line := LineFor(item)
		s.Lines = append(s.Lines, SummaryLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			LineTotal: line,
		})
		s.ItemCount += item.Quantity
		s.Subtotal = s.Subtotal.Add(line.NetTotal)
		s.Savings = s.Savings.Add(line.Savings)
	}

	s.Total = s.Subtotal.Add(s.Surcharge)
	return s
}

// ComputeOrderTotal : somme des nets + frais COD. Un panier vide vaut les frais seuls.
func ComputeOrderTotal(items []models.CartItem, method models.PaymentMethod) decimal.Decimal {
	return Summarize(items, method).Total
}
