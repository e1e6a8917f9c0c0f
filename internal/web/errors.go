package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/memory"
	"github.com/vishxl-0001/vipn/pkg/payment"
	"github.com/vishxl-0001/vipn/pkg/state"
	"github.com/vishxl-0001/vipn/pkg/telemetry"
)

// errNoPendingPayment is returned for payment callbacks outside a handoff
var errNoPendingPayment = errors.New("no payment in progress")

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, memory.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrInvalidPage), errors.Is(err, payment.ErrMissingPaymentID):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrHandoffMismatch), errors.Is(err, errNoPendingPayment):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and answers with its status. Server errors hide the
// underlying message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	fields := telemetry.EnrichLogFields(r.Context(), map[string]interface{}{
		"path":   r.URL.Path,
		"status": status,
		"error":  err.Error(),
	})

	msg := err.Error()
	if status >= 500 {
		h.logger.Error("Request failed", fields)
		msg = http.StatusText(status)
	} else {
		h.logger.Warn("Request rejected", fields)
	}
	http.Error(w, msg, status)
}
