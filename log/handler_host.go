//go:build !wasip1

package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	stubMu  sync.Mutex
	stubOut io.Writer = os.Stdout
)

// Handle writes the payload that would be sent to log_msg, one JSON object
// per line, so guest code logs normally in native tests.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	payload, err := json.Marshal(h.toWire(ctx, record))
	if err != nil {
		return fmt.Errorf("log: marshal record: %w", err)
	}

	stubMu.Lock()
	defer stubMu.Unlock()
	_, err = fmt.Fprintf(stubOut, "[HOST-STUB] level=%d %s\n", int32(record.Level), payload)
	return err
}
