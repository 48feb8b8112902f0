// Package config provides configuration loading and validation for the IDN
// stream player and monitor. Values are read from a YAML file on top of the
// built-in defaults; command-line flags override them afterwards.
package config
