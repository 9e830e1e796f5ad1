// Package config provides configuration structures and utilities for
// formbuilder: command options, defaults, and the per-page settings of the
// .formbuilder file.
package config
