// Package defaults provides the embedded default configuration for the
// taskpilot init subcommand.
package defaults

import _ "embed"

//go:embed taskpilot.example.yaml
var ConfigYAML []byte
