// Package search synchronise l'index Elasticsearch des produits.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"pokestore_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const DefaultIndex = "products"

// Indexer : document produit complet à la création, mise à jour partielle du stock ensuite
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger *zap.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, logger *zap.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{client: client, index: index, logger: logger}
}

type productDoc struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	Image         string  `json:"image"`
	StockQuantity int     `json:"stockQuantity"`
	InStock       bool    `json:"inStock"`
}

func (ix *Indexer) IndexProduct(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(productDoc{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price.InexactFloat64(),
		Image:         p.Image,
		StockQuantity: p.StockQuantity,
		InStock:       p.InStock(),
	})
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	return ix.do(ctx, req, p.ID)
}

// StockMoved reporte le stock restant après une vente
func (ix *Indexer) StockMoved(ctx context.Context, m models.StockMovement) error {
	body, err := json.Marshal(map[string]interface{}{
		"doc": map[string]interface{}{
			"stockQuantity": m.NewStock,
			"inStock":       m.NewStock > 0,
		},
	})
	if err != nil {
		return err
	}

	req := esapi.UpdateRequest{
		Index:           ix.index,
		DocumentID:      m.ProductID,
		Body:            bytes.NewReader(body),
		RetryOnConflict: esapi.IntPtr(3),
	}
	if err := ix.do(ctx, req, m.ProductID); err != nil {
		return err
	}

	ix.logger.Debug("stock indexé",
		zap.String("product_id", m.ProductID),
		zap.Int("stock", m.NewStock))
	return nil
}

func (ix *Indexer) do(ctx context.Context, req esapi.Request, id string) error {
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("elastic %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("elastic %s: %s %s", id, res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}
