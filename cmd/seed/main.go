// Commande seed : charge un catalogue JSON dans ScyllaDB et l'indexe dans Elasticsearch.
//
//	go run ./cmd/seed -file products.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"pokestore_back_end/internal/config"
	"pokestore_back_end/internal/database"
	"pokestore_back_end/internal/logger"
	"pokestore_back_end/internal/models"
	"pokestore_back_end/internal/search"
	"pokestore_back_end/internal/store"

	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "products.json", "catalogue JSON (tableau de produits)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}
	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("❌ Logger: %v", err)
	}
	defer logg.Sync()

	if err := seed(cfg, *file, logg); err != nil {
		logg.Fatal("❌ seed échoué", zap.Error(err))
	}
}

func readCatalog(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("catalogue %s: %w", path, err)
	}
	return products, nil
}

func seed(cfg *config.Config, path string, logg *zap.Logger) error {
	if !cfg.ScyllaEnabled() {
		return fmt.Errorf("ScyllaDB non configuré (SCYLLA_HOSTS, SCYLLA_KS_*)")
	}

	products, err := readCatalog(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	conns, err := database.Connect(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer conns.Close()

	productStore := store.NewScyllaProductStore(conns.Products, logg)

	var indexer *search.Indexer
	if conns.Elastic != nil {
		indexer = search.NewIndexer(conns.Elastic, cfg.Elastic.Index, logg)
	}

	for i := range products {
		p := &products[i]
		if err := productStore.SaveProduct(ctx, p); err != nil {
			return fmt.Errorf("produit %q: %w", p.Name, err)
		}
		if indexer != nil {
			if err := indexer.IndexProduct(ctx, *p); err != nil {
				logg.Warn("⚠️ indexation échouée", zap.String("product_id", p.ID), zap.Error(err))
			}
		}
	}

	logg.Info("✅ catalogue chargé", zap.Int("products", len(products)), zap.Bool("indexed", indexer != nil))
	return nil
}
