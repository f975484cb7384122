package database

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
)

var ProductsSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id uuid PRIMARY KEY,
		name text,
		description text,
		price text,
		image text,
		category text,
		stock int,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE INDEX IF NOT EXISTS products_category_idx ON products (category)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		product_id uuid,
		id timeuuid,
		type text,
		quantity int,
		prev_stock int,
		new_stock int,
		order_id text,
		created_at timestamp,
		PRIMARY KEY (product_id, id)
	) WITH CLUSTERING ORDER BY (id DESC)`,
}

var OrdersSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id uuid PRIMARY KEY,
		user_id text,
		items text,
		total text,
		customer_info text,
		status text,
		payment_method text,
		payment_intent_id text,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS orders_by_user (
		user_id text,
		order_id timeuuid,
		status text,
		total text,
		created_at timestamp,
		PRIMARY KEY (user_id, order_id)
	) WITH CLUSTERING ORDER BY (order_id DESC)`,
}

// CreateSchema exécute les CREATE ... IF NOT EXISTS dans l'ordre
func CreateSchema(ctx context.Context, session *gocql.Session, statements []string) error {
	for _, stmt := range statements {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("schéma: %w", err)
		}
	}
	return nil
}
