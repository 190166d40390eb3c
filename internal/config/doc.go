// Package config loads arbor's settings.
//
// Settings come from three layers, later layers overriding earlier ones:
//
//	defaults  <  config file (TOML or YAML)  <  ARBOR_* environment
//
// The merged map is decoded into Settings by encoding it as TOML and
// decoding that into the struct, so every layer goes through the same
// type checks. A Config holds the current Settings and can reload them
// when the file changes on disk.
package config
