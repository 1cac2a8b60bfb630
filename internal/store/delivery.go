package store

import (
	"context"
	"fmt"

	"github.com/safar/shop-orders/internal/models"
)

func (s *SQL) InsertDeliveryRecord(ctx context.Context, record *models.DeliveryRecord) (*models.DeliveryRecord, error) {
	created := &models.DeliveryRecord{}

	query := `
		INSERT INTO delivery_records (order_id, company_id, method_id, location_method_id,
			method_price, location_price, total_delivery_cost, address, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, order_id, company_id, method_id, location_method_id,
			method_price, location_price, total_delivery_cost, address, notes, created_at`

	err := s.DB.QueryRowContext(ctx, query,
		record.OrderID,
		record.CompanyID,
		record.MethodID,
		record.LocationMethodID,
		record.MethodPrice,
		record.LocationPrice,
		record.TotalDeliveryCost,
		record.Address,
		record.Notes,
	).Scan(
		&created.ID,
		&created.OrderID,
		&created.CompanyID,
		&created.MethodID,
		&created.LocationMethodID,
		&created.MethodPrice,
		&created.LocationPrice,
		&created.TotalDeliveryCost,
		&created.Address,
		&created.Notes,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert delivery record: %w", err)
	}

	return created, nil
}
