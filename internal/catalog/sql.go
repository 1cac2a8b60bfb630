package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/shop-orders/internal/database"
	"github.com/safar/shop-orders/internal/models"
)

// SQLGateway reads the catalog tables directly. Lookups for many ids go
// through a single ANY($1) query instead of one round trip per id.
type SQLGateway struct {
	DB *sql.DB
}

func NewSQLGateway(db *sql.DB) *SQLGateway {
	return &SQLGateway{DB: db}
}

func (g *SQLGateway) GetShop(ctx context.Context, id int64) (*models.Shop, error) {
	shop := &models.Shop{}

	query := `
		SELECT id, name, created_at, updated_at
		FROM shops
		WHERE id = $1`

	err := g.DB.QueryRowContext(ctx, query, id).Scan(
		&shop.ID,
		&shop.Name,
		&shop.CreatedAt,
		&shop.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrShopNotFound
		}
		return nil, fmt.Errorf("get shop: %w", err)
	}

	return shop, nil
}

func (g *SQLGateway) GetProducts(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	out := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `
		SELECT id, shop_id, name, price, sale_price, onsale, created_at, updated_at
		FROM products
		WHERE id = ANY($1)`

	rows, err := g.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		err := rows.Scan(
			&p.ID,
			&p.ShopID,
			&p.Name,
			&p.Price,
			&p.SalePrice,
			&p.OnSale,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

func (g *SQLGateway) GetFeatures(ctx context.Context, ids []int64) (map[int64]models.Feature, error) {
	out := make(map[int64]models.Feature, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := g.DB.QueryContext(ctx,
		`SELECT id, name FROM features WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get features: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f models.Feature
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		out[f.ID] = f
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

func (g *SQLGateway) GetFeatureValues(ctx context.Context, ids []int64) (map[int64]models.FeatureValue, error) {
	out := make(map[int64]models.FeatureValue, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := g.DB.QueryContext(ctx,
		`SELECT id, feature_id, name, price_addition FROM feature_values WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get feature values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.FeatureValue
		if err := rows.Scan(&v.ID, &v.FeatureID, &v.Name, &v.PriceAddition); err != nil {
			return nil, fmt.Errorf("scan feature value: %w", err)
		}
		out[v.ID] = v
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

func (g *SQLGateway) GetDeliveryMethod(ctx context.Context, id int64) (*models.DeliveryMethod, error) {
	m := &models.DeliveryMethod{}

	err := g.DB.QueryRowContext(ctx,
		`SELECT id, COALESCE(company_id, 0), name, price_addition FROM delivery_methods WHERE id = $1`,
		id).Scan(&m.ID, &m.CompanyID, &m.Name, &m.PriceAddition)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrDeliveryMethodNotFound
		}
		return nil, fmt.Errorf("get delivery method: %w", err)
	}

	return m, nil
}

func (g *SQLGateway) GetDeliveryLocationMethod(ctx context.Context, id int64) (*models.DeliveryLocationMethod, error) {
	m := &models.DeliveryLocationMethod{}

	err := g.DB.QueryRowContext(ctx,
		`SELECT id, name, price_addition FROM delivery_location_methods WHERE id = $1`,
		id).Scan(&m.ID, &m.Name, &m.PriceAddition)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrDeliveryMethodNotFound
		}
		return nil, fmt.Errorf("get delivery location method: %w", err)
	}

	return m, nil
}
