package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/shop-orders/internal/database"
	"github.com/safar/shop-orders/internal/models"
)

// SQL is the persistence gateway: per-entity inserts against Postgres.
// There is deliberately no multi-statement transaction across entities;
// the order pipeline owns the failure policy for each write.
type SQL struct {
	DB *sql.DB
}

func New(db *sql.DB) *SQL {
	return &SQL{DB: db}
}

func (s *SQL) InsertOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	created := &models.Order{}

	query := `
		INSERT INTO orders (shop_id, customer_id, customer_name, customer_phone, customer_email,
			customer_address, order_number, order_type, payment_method, status,
			subtotal, delivery_cost, discount_percentage, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id, shop_id, customer_id, customer_name, customer_phone, customer_email,
			customer_address, order_number, order_type, payment_method, status,
			subtotal, delivery_cost, discount_percentage, total_amount, created_at, updated_at`

	err := database.WithRetry(ctx, database.DefaultRetryOptions(), func() error {
		return s.DB.QueryRowContext(ctx, query,
			order.ShopID,
			order.CustomerID,
			order.CustomerName,
			order.CustomerPhone,
			order.CustomerEmail,
			order.CustomerAddress,
			order.OrderNumber,
			order.OrderType,
			order.PaymentMethod,
			order.Status,
			order.Subtotal,
			order.DeliveryCost,
			order.DiscountPercentage,
			order.TotalAmount,
		).Scan(
			&created.ID,
			&created.ShopID,
			&created.CustomerID,
			&created.CustomerName,
			&created.CustomerPhone,
			&created.CustomerEmail,
			&created.CustomerAddress,
			&created.OrderNumber,
			&created.OrderType,
			&created.PaymentMethod,
			&created.Status,
			&created.Subtotal,
			&created.DeliveryCost,
			&created.DiscountPercentage,
			&created.TotalAmount,
			&created.CreatedAt,
			&created.UpdatedAt,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	return created, nil
}

func (s *SQL) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, shop_id, customer_id, customer_name, customer_phone, customer_email,
			customer_address, order_number, order_type, payment_method, status,
			subtotal, delivery_cost, discount_percentage, total_amount, created_at, updated_at
		FROM orders
		WHERE id = $1`

	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.ShopID,
		&order.CustomerID,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.CustomerEmail,
		&order.CustomerAddress,
		&order.OrderNumber,
		&order.OrderType,
		&order.PaymentMethod,
		&order.Status,
		&order.Subtotal,
		&order.DeliveryCost,
		&order.DiscountPercentage,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := s.listLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (s *SQL) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	result, err := s.DB.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrOrderNotFound
	}

	return nil
}
