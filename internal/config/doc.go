// Package config loads sticky's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/sticky/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/sticky/config.toml
//   - Store backend: file
//   - Store path: ~/.local/share/sticky/power-sticky.json (sticky.db for sqlite)
//   - Save debounce: 500ms
//   - Host socket: ~/.local/state/sticky/sticky.sock
//   - Log file: ~/.local/state/sticky/sticky.log
//   - Log level: info, text format
//
// # TOML Format
//
//	store_backend = "file"        # file, sqlite or memory
//	store_path = "~/notes/power-sticky.json"
//	save_debounce_ms = 500
//	socket_path = "~/.local/state/sticky/sticky.sock"
//	log_level = "info"
//	log_format = "text"           # or json
//	log_file = "~/.local/state/sticky/sticky.log"
//
// Every field is optional. Tilde paths are expanded and relative paths are
// made absolute against the working directory.
//
// # Error Handling
//
// Load returns errors for unreadable files, invalid TOML, an unknown store
// backend and a negative debounce. A missing file is not an error.
//
// # Live Reload
//
// Watch re-reads the file after it changes and hands the result to a
// callback; the CLI uses it to apply a new log level without a restart.
// Store settings are only read at startup.
package config
