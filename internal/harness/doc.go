// Package harness runs end-to-end API scenarios defined in YAML.
//
// A scenario is an ordered flow of HTTP requests against a fresh
// server instance with a frozen clock and scripted randomness, so
// every run produces identical codes, tokens and timestamps. Steps
// can capture response fields into variables ({{name}}) for later
// requests and expectations.
package harness
