package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// generateOrderNumber derives a human-diagnosable token from the clock
// plus a random suffix. Uniqueness is probabilistic; the unique index on
// orders.order_number is the real safety net.
func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixNano(), suffix)
}
