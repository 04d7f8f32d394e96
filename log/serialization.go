package log

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/internal/wasmcontext"
)

// toWire builds the log_msg payload for record.
func (h *Handler) toWire(ctx context.Context, record slog.Record) entities.LogMessageWire {
	msg := entities.LogMessageWire{
		Context:   wasmcontext.ContextToWire(ctx),
		Level:     record.Level.String(),
		Message:   record.Message,
		Timestamp: record.Time,
	}

	for _, a := range h.attrs {
		msg.Attrs = appendAttr(msg.Attrs, "", a)
	}
	prefix := h.prefix()
	record.Attrs(func(a slog.Attr) bool {
		msg.Attrs = appendAttr(msg.Attrs, prefix, a)
		return true
	})

	if h.opts.addSource && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		msg.Attrs = append(msg.Attrs, entities.LogAttrWire{
			Key:   slog.SourceKey,
			Type:  "string",
			Value: fmt.Sprintf("%s:%d", frame.File, frame.Line),
		})
	}

	return msg
}

// appendAttr flattens groups into dotted keys and drops empty attributes.
func appendAttr(dst []entities.LogAttrWire, prefix string, a slog.Attr) []entities.LogAttrWire {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst = appendAttr(dst, p, ga)
		}
		return dst
	}
	return append(dst, toLogAttrWire(prefixed(prefix, a)))
}

// toLogAttrWire converts a resolved, non-group slog.Attr to its wire form.
// Values the host cannot type are sent as JSON, or formatted with %v when
// they do not marshal.
func toLogAttrWire(a slog.Attr) entities.LogAttrWire {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return entities.LogAttrWire{Key: a.Key, Type: "string", Value: v.String()}
	case slog.KindInt64:
		return entities.LogAttrWire{Key: a.Key, Type: "int64", Value: strconv.FormatInt(v.Int64(), 10)}
	case slog.KindUint64:
		return entities.LogAttrWire{Key: a.Key, Type: "uint64", Value: strconv.FormatUint(v.Uint64(), 10)}
	case slog.KindBool:
		return entities.LogAttrWire{Key: a.Key, Type: "bool", Value: strconv.FormatBool(v.Bool())}
	case slog.KindFloat64:
		return entities.LogAttrWire{Key: a.Key, Type: "float64", Value: strconv.FormatFloat(v.Float64(), 'g', -1, 64)}
	case slog.KindTime:
		return entities.LogAttrWire{Key: a.Key, Type: "time", Value: v.Time().Format(time.RFC3339Nano)}
	case slog.KindDuration:
		return entities.LogAttrWire{Key: a.Key, Type: "duration", Value: v.Duration().String()}
	}

	switch x := v.Any().(type) {
	case nil:
		return entities.LogAttrWire{Key: a.Key, Type: "any", Value: "<nil>"}
	case error:
		return entities.LogAttrWire{Key: a.Key, Type: "error", Value: x.Error()}
	default:
		if data, err := json.Marshal(x); err == nil {
			return entities.LogAttrWire{Key: a.Key, Type: "json", Value: string(data)}
		}
		return entities.LogAttrWire{Key: a.Key, Type: "any", Value: fmt.Sprintf("%v", x)}
	}
}
