package usecase

import "github.com/Galleee2002/fueradecontexto-api/internal/entity"

// MapPaymentStatus reduces Mercado Pago's status vocabulary to the internal
// payment lifecycle. Unknown and in-flight statuses (pending, in_process,
// authorized) stay pending until a terminal notification arrives.
func MapPaymentStatus(mpStatus string) entity.PaymentStatus {
	switch mpStatus {
	case "approved":
		return entity.PaymentPaid
	case "rejected", "cancelled":
		return entity.PaymentFailed
	case "refunded", "charged_back":
		return entity.PaymentRefunded
	default:
		return entity.PaymentPending
	}
}
