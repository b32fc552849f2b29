// Package config loads tool configuration from an optional zigbind.hcl file
// at the source root, layered under environment overrides. Every setting has
// a working default; a missing file is not an error.
package config
