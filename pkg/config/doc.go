// Package config loads the portal configuration.
//
// Configuration is read once at startup from a YAML file, overlaid with a
// handful of environment variables for secrets, validated, and then passed by
// value to every component constructor. Nothing below the CLI or API entry
// points reads the environment or the file again.
//
//	provider: github
//	registry:
//	  url: https://harbor.example.com
//	  project: proj
//	  username: robot
//	  password: secret
//	github:
//	  token: ghp_xxx
//	  repo: org/gitops
//	  base_branch: main
//
// Missing required keys fail with a CONFIGURATION_ERROR listing every
// missing key at once.
package config
