// Package config loads tally's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tally/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/tally/config.toml
//   - Data directory: ~/.local/share/tally
//   - Local cache: <data_dir>/local.toml
//   - Log file: <data_dir>/tally.log
//   - Badger directory: <data_dir>/badger
//   - SQLite file: <data_dir>/tally.db
//   - User metadata path inside the backend: user/meta.json
//   - Location lookup: https://ipapi.co/json/ with a 5 second timeout
//
// # TOML Format
//
//	data_dir = "~/.local/share/tally"
//	log_level = "info"
//
//	[s3]
//	bucket = "tally"
//	region = "eu-north-1"
//	endpoint = "http://127.0.0.1:9000"
//	create_bucket = true
//
//	[locate]
//	timeout_seconds = 3
//
// Every field is optional. Tilde expansion is performed on every path.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, and TOML parse errors. A missing file is not an error.
package config
