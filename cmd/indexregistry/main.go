/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command indexregistry registers, replaces and inspects identifier-keyed
// JSON documents in a search-engine backed registry section.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
