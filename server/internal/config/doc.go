// Package config loads the botdeck server configuration from the `server:`
// section of config.yaml.
//
// Config fields:
//   - HTTPPort: port for the REST API (default 3001)
//   - ShutdownTimeout: grace period for in-flight requests (default 5s)
//   - Log: level, format (json|text) and optional rotated file
//   - Snapshot.Source: file | sql | s3 | http, plus one block per source
//   - Metrics: Prometheus exposition toggle and path
//
// Load(path) applies defaults before unmarshalling, then environment
// overrides (API_PORT, LOG_LEVEL, BOTDECK_SNAPSHOT_SOURCE), then validates.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config.
package config
