//go:build wasip1

package runnable

import (
	"encoding/json"
	"log/slog"

	"github.com/runnable-dev/runnable-sdk/domain/entities"
	"github.com/runnable-dev/runnable-sdk/internal/abi"
	_ "github.com/runnable-dev/runnable-sdk/log" // Initialize WASM logging handler
)

// run is called by the host with a RunRequest the host wrote into memory
// obtained from allocate. The returned region is released by the host with
// deallocate.
//
//go:wasmexport run
func run(ptr, length uint32) uint64 {
	packed := abi.PackPtrLen(ptr, length)
	payload := abi.BytesFromPtr(packed)
	abi.DeallocatePacked(packed)

	var req entities.RunRequest
	result := entities.RunResult{}
	if err := json.Unmarshal(payload, &req); err != nil {
		result.Error = entities.NewErrorDetail("internal", "malformed run request: "+err.Error())
	} else {
		result = invoke(req)
	}

	data, err := json.Marshal(result)
	if err != nil {
		slog.Error("sdk: failed to marshal run result", "error", err.Error())
		data, _ = json.Marshal(entities.RunResult{Error: entities.NewErrorDetail("internal", "failed to marshal run result")})
	}
	return abi.PtrFromBytes(data)
}
