// Qlimit checks limiter quota files and replays synthetic workloads through a
// limiter to show how its quota shapes them.
//
// Usage:
//
//	# Validate a quota file
//	qlimit validate --config quotas.yaml
//
//	# Re-validate on every change
//	qlimit validate --config quotas.yaml --watch
//
//	# Push 20 tasks of 300ms through the "api" limiter
//	qlimit simulate --config quotas.yaml --limiter api --tasks 20 --work 300ms
package main

func main() {
	Execute()
}
