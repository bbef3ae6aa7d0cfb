package scheduler

import (
	"context"
	"time"
)

// Job names
const (
	JobOrderExpiry = "order-expiry"
)

// OrderExpirer cancels pending-payment orders older than a cut-off
type OrderExpirer interface {
	ExpirePendingOrders(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// OrderExpiryJob cancels unpaid orders once the payment window has passed
func OrderExpiryJob(expirer OrderExpirer, interval, paymentTimeout time.Duration, batchSize int) Job {
	return Job{
		Name:     JobOrderExpiry,
		Interval: interval,
		Task: func(ctx context.Context) (int, error) {
			return expirer.ExpirePendingOrders(ctx, paymentTimeout, batchSize)
		},
	}
}
