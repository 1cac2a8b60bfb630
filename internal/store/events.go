package store

import (
	"context"
	"fmt"

	"github.com/safar/shop-orders/internal/models"
)

func (s *SQL) InsertStatusEvent(ctx context.Context, event *models.StatusEvent) (*models.StatusEvent, error) {
	created := &models.StatusEvent{}

	query := `
		INSERT INTO order_status_events (order_id, status, actor, notes, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, order_id, status, actor, notes, created_at`

	err := s.DB.QueryRowContext(ctx, query,
		event.OrderID,
		event.Status,
		event.Actor,
		event.Notes,
	).Scan(
		&created.ID,
		&created.OrderID,
		&created.Status,
		&created.Actor,
		&created.Notes,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert status event: %w", err)
	}

	return created, nil
}
