package wazero

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/tetratelabs/wazero/api"
)

// logMsg forwards a guest log record to the adapter logger.
func (h *hostModule) logMsg(ctx context.Context, mod api.Module, stack []uint64) {
	level := slog.Level(api.DecodeI32(stack[2]))
	module := GetModuleName(ctx, mod)

	payload, err := h.read(mod, stack[0], stack[1], "log")
	if err != nil {
		h.cfg.Logger.WarnContext(ctx, "wazero: log_msg dropped", "module", module, "error", err)
		return
	}

	var msg entities.LogMessageWire
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.cfg.Logger.WarnContext(ctx, "wazero: log_msg payload is not valid JSON", "module", module, "error", err)
		return
	}

	if !h.cfg.Logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(msg.Attrs)+2)
	attrs = append(attrs, slog.String("module", module))
	if msg.Context.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", msg.Context.RequestID))
	}
	for _, a := range msg.Attrs {
		attrs = append(attrs, fromLogAttrWire(a))
	}

	record := slog.NewRecord(msg.Timestamp, level, msg.Message, 0)
	if record.Time.IsZero() {
		record.Time = time.Now()
	}
	record.AddAttrs(attrs...)
	_ = h.cfg.Logger.Handler().Handle(ctx, record)
}

// fromLogAttrWire restores the typed value of a wire attribute. Values that
// do not parse are kept as strings.
func fromLogAttrWire(a entities.LogAttrWire) slog.Attr {
	switch a.Type {
	case "int64":
		if v, err := strconv.ParseInt(a.Value, 10, 64); err == nil {
			return slog.Int64(a.Key, v)
		}
	case "uint64":
		if v, err := strconv.ParseUint(a.Value, 10, 64); err == nil {
			return slog.Uint64(a.Key, v)
		}
	case "bool":
		if v, err := strconv.ParseBool(a.Value); err == nil {
			return slog.Bool(a.Key, v)
		}
	case "float64":
		if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
			return slog.Float64(a.Key, v)
		}
	case "time":
		if v, err := time.Parse(time.RFC3339Nano, a.Value); err == nil {
			return slog.Time(a.Key, v)
		}
	case "duration":
		if v, err := time.ParseDuration(a.Value); err == nil {
			return slog.Duration(a.Key, v)
		}
	}
	return slog.String(a.Key, a.Value)
}
