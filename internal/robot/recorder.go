package robot

import (
	"context"

	"slackhook/internal/domain"
)

type multiRecorder []domain.DeliveryRecorder

// MultiRecorder fans deliveries out to every non-nil recorder.
func MultiRecorder(recs ...domain.DeliveryRecorder) domain.DeliveryRecorder {
	out := make(multiRecorder, 0, len(recs))
	for _, r := range recs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multiRecorder) RecordDelivery(ctx context.Context, d domain.Delivery) {
	for _, r := range m {
		r.RecordDelivery(ctx, d)
	}
}
