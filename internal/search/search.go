package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"pokestore_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/shopspring/decimal"
)

const maxResults = 50

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source productDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search cherche dans le nom et la description, filtré par catégorie si fournie
func (ix *Indexer) Search(ctx context.Context, query, category string, limit int) ([]models.Product, error) {
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}

	boolQuery := map[string]interface{}{
		"must": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	if category != "" {
		boolQuery["filter"] = map[string]interface{}{
			"term": map[string]interface{}{"category": category},
		}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"size":  limit,
	}); err != nil {
		return nil, fmt.Errorf("encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{ix.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return nil, fmt.Errorf("recherche elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("recherche elastic: %s %s", res.Status(), bytes.TrimSpace(msg))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("décodage résultats: %w", err)
	}

	products := make([]models.Product, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		d := hit.Source
		products = append(products, models.Product{
			ID:            d.ID,
			Name:          d.Name,
			Description:   d.Description,
			Category:      d.Category,
			Price:         decimal.NewFromFloat(d.Price),
			Image:         d.Image,
			StockQuantity: d.StockQuantity,
		})
	}
	return products, nil
}
