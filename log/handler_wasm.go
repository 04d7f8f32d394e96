//go:build wasip1

package log

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/runnable-dev/runnable-sdk/internal/abi"
)

//go:wasmimport env log_msg
//nolint:revive // intentional snake_case to match WASM import convention
func host_log_msg(ptr, length uint32, level int32)

// Handle serializes record and sends it to the host.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	payload, err := json.Marshal(h.toWire(ctx, record))
	if err != nil {
		fmt.Printf("sdk: failed to marshal log message for host: %v, original: %s\n", err, record.Message)
		return nil
	}

	ptr, length := abi.SliceArgs(payload)
	host_log_msg(ptr, length, int32(record.Level))
	runtime.KeepAlive(payload)
	return nil
}

func init() {
	slog.SetDefault(slog.New(NewHandler()))
}
