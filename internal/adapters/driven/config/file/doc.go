// Package file provides file-based configuration for Aksara.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage (~/.aksara/config.toml)
//   - PromptStore: editable prompt files with embedded defaults and hot reload
//   - LoadSettings: layers defaults, config.toml, .env and environment variables
package file
