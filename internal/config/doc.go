// Package config loads brewtimer's TOML configuration.
//
// A missing file is not an error: Load returns Default() with paths
// expanded. Azure credentials never live here; they come from the
// environment (optionally via a .env file).
package config
