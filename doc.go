/*
Package tendril is a minimal serverless-style function execution runtime.

A long-running process polls a Redis key for new input, invokes a
user-supplied Lua handler against it, and republishes the handler's result
under a second key. The loop is single-threaded and deliberately simple:
fixed-interval pacing, byte-exact change detection, and failure isolation at
every stage, so nothing a handler does after startup can crash the runtime.

# Concept

The runtime sits between a producer and a consumer it knows nothing about.
Something (a metrics collector, the bundled seed command) writes a JSON
object to the input key; the handler transforms it; a consumer (the bundled
dashboard, or anything else) reads the JSON object from the output key.
Delivery is at-most-once per observed change: if decode, execution or
publish fails, that input is only revisited when its value changes again,
unless the RetryOnFailure policy is selected.

# Usage

Load a handler and run the loop:

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/tendril"
	)

	func main() {
		rt, err := tendril.New("vm-stats",
			tendril.WithHandlerPath("./handler.lua"),
			tendril.WithInputKey("metrics"),
		)
		if err != nil {
			log.Fatal(err) // startup errors are fatal, by contract
		}
		defer rt.Close()

		// Runs until the process is terminated.
		if err := rt.Run(context.Background()); err != nil {
			log.Fatal(err)
		}
	}

The handler script defines one global function:

	function handler(payload, context)
		return { ["avg-util-cpu0-60sec"] = payload.cpu0 }
	end

It receives the decoded input object and a context table (store host/port,
key names, handler mtime, last execution time) and must return a table that
encodes as a JSON object; anything else is logged and skipped.
*/
package tendril
