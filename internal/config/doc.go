// Package config provides the configuration of a cleaning run: the run
// parameters given on the command line, the artifact store settings, and
// the optional .basiccleaning YAML file that overrides defaults.
package config
