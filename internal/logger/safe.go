package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// paymentKeys lists the only field keys payment logs may carry.
var paymentKeys = map[string]struct{}{
	"request_id":               {},
	"order_id":                 {},
	"user_id":                  {},
	"stripe_session_id":        {},
	"stripe_event_id":          {},
	"stripe_payment_intent_id": {},
	"type":                     {},
	"event_type":               {},
	"outcome":                  {},
	"reason":                   {},
	"orphan_reason":            {},
	"orphaned":                 {},
	"error":                    {},
	"error_code":               {},
	"charge_id":                {},
	"payment_intent_id":        {},
	"pricing_mode":             {},
	"session_mode":             {},
	"session_amount":           {},
	"session_currency":         {},
	"order_amount_cents":       {},
	"order_currency":           {},
	"payment_status":           {},
	"amount":                   {},
	"amount_refunded":          {},
	"amount_received":          {},
	"count":                    {},
	"metric":                   {},
	"status":                   {},
	"trace_id":                 {},
	"span_id":                  {},
	"transitioned":             {},
	"has_customer_email":       {},
	"stripe_error":             {},
}

// Payment returns a logger whose fields pass through the payment allow-list.
// Unknown keys are dropped, and so is any string value containing "@".
func Payment(base *zap.Logger) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		if _, ok := core.(safeCore); ok {
			return core
		}
		return safeCore{Core: core}
	}))
}

// Failure describes a failed operation. The raw error is attached only
// outside production; production logs carry error_code alone.
func Failure(code string, err error, production bool) []zap.Field {
	if production || err == nil {
		return []zap.Field{zap.String("error_code", code)}
	}
	return []zap.Field{zap.String("error_code", code), zap.Error(err)}
}

type safeCore struct {
	zapcore.Core
}

func (c safeCore) With(fields []zapcore.Field) zapcore.Core {
	return safeCore{Core: c.Core.With(filterFields(fields))}
}

func (c safeCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c safeCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, filterFields(fields))
}

func filterFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if _, ok := paymentKeys[f.Key]; !ok {
			continue
		}
		if containsAt(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func containsAt(f zapcore.Field) bool {
	switch f.Type {
	case zapcore.StringType:
		return strings.Contains(f.String, "@")
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok && err != nil {
			return strings.Contains(err.Error(), "@")
		}
	case zapcore.StringerType:
		if s, ok := f.Interface.(fmt.Stringer); ok && s != nil {
			return strings.Contains(s.String(), "@")
		}
	}
	return false
}
