// Package config defines the server configuration structure.
//
// Configuration merges from defaults, a YAML file, and CHATMESH_
// environment variables through confloader. Verify rejects invalid or
// incomplete configurations before the server starts; Sanitize masks
// secrets so the effective configuration can be logged.
package config
