// Package logger provides the structured logger used across the storefront.
//
// Fields are passed either as alternating key/value pairs, as Field values,
// or as a single map:
//
//	log.Info("order created", "order_id", order.ID, "amount", order.Amount)
//	log.With(logger.Field{Key: "session_id", Value: id}).Debug("state loaded")
//
// SimpleLogger writes one line per entry in text or JSON form. The format and
// minimum level are read from STOREFRONT_LOG_FORMAT and STOREFRONT_LOG_LEVEL
// by NewFromEnv; JSON is the default inside Kubernetes.
package logger
