// Package confloader loads configuration from layered sources.
//
// It builds on koanf: defaults from the target struct, then a YAML file,
// then CHATMESH_-prefixed environment variables, each layer overriding
// the one before. A watcher built on fsnotify triggers reload callbacks
// when the configuration file changes on disk.
package confloader
