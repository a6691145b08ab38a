// Package config manages user-level settings stored at ~/.stackgen/config.yaml
// and resolves the options for a scaffold run from flags, STACKGEN_*
// environment variables, that file and built-in defaults, in that order.
package config
