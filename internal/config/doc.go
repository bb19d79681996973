// Package config holds the configuration block a pipeline is built from.
//
// A configuration is a two-level structure: sections name modules, options
// parameterise them. It is decoded from HCL, YAML or TOML files by the format
// package and stored in a block.DataBlock so that modules read their options
// with the same typed getters they use for data.
package config
