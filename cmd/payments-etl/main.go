// cmd/payments-etl/main.go

// payments-etl transforms raw subscription-billing exports into the
// enriched payments analytics table.
//
// Usage:
//
//	# One-shot full refresh from the configured source
//	payments-etl run
//
//	# Nightly full refresh at 02:00
//	payments-etl run --schedule "0 2 * * *"
//
//	# Check a lookup-table override file
//	payments-etl validate-tables --file tables.yaml
//
//	# Show version information
//	payments-etl version
//
// Configuration comes from environment variables (a .env file is
// honored); see pkg/config for the full list.
package main

func main() {
	Execute()
}
