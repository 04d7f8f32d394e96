// Command runnable-host loads a guest module and runs it against the cache,
// database, GraphQL, and static file backends described by a configuration file.
//
//	runnable-host run --config host.yaml --input '{"id":1}' guest.wasm
//	runnable-host validate host.yaml
//	runnable-host schema > host.schema.json
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
