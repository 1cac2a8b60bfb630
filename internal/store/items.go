package store

import (
	"context"
	"fmt"

	"github.com/safar/shop-orders/internal/models"
)

func (s *SQL) InsertLineItem(ctx context.Context, item *models.OrderLineItem) (*models.OrderLineItem, error) {
	created := &models.OrderLineItem{}

	query := `
		INSERT INTO order_line_items (order_id, product_id, product_name, unit_price, sale_price,
			final_unit_price, features, features_total, item_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, order_id, product_id, product_name, unit_price, sale_price,
			final_unit_price, features, features_total, item_total, created_at`

	err := s.DB.QueryRowContext(ctx, query,
		item.OrderID,
		item.ProductID,
		item.ProductName,
		item.UnitPrice,
		item.SalePrice,
		item.FinalUnitPrice,
		item.Features,
		item.FeaturesTotal,
		item.ItemTotal,
	).Scan(
		&created.ID,
		&created.OrderID,
		&created.ProductID,
		&created.ProductName,
		&created.UnitPrice,
		&created.SalePrice,
		&created.FinalUnitPrice,
		&created.Features,
		&created.FeaturesTotal,
		&created.ItemTotal,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert line item: %w", err)
	}

	return created, nil
}

func (s *SQL) listLineItems(ctx context.Context, orderID int64) ([]models.OrderLineItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, unit_price, sale_price,
			final_unit_price, features, features_total, item_total, created_at
		FROM order_line_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := s.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderLineItem{}
	for rows.Next() {
		var item models.OrderLineItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.UnitPrice,
			&item.SalePrice,
			&item.FinalUnitPrice,
			&item.Features,
			&item.FeaturesTotal,
			&item.ItemTotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}
