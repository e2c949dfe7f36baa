// Package cli implements the portal command-line tool.
//
// # Commands
//
//	portal repos [--format yaml|json|table]
//	portal tags REPOSITORY
//	portal render --app orders-api --repository orders-api --tag v2 [--dir out]
//	portal submit --app orders-api --repository orders-api --tag v2 --replicas 3
//	portal mcp
//
// render and submit also accept --file with a JSON or YAML request:
//
//	appName: orders-api
//	selection:
//	  repository: orders-api
//	  tag: v2
//	replicas: 3
//	host: orders.example.com
//
// # Global Flags
//
//	--config, -c   Configuration file (env PORTAL_CONFIG, default portal.yaml)
//	--log-level    debug, info, warn or error (default info)
//	--output, -o   Output file path (default: stdout)
//	--format, -t   Output format: yaml, json, table (default: yaml)
package cli
