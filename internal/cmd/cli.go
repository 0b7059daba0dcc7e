package cmd

import "github.com/alecthomas/kong"

// CLI is the root command line of metagen. Every flag can also come from a
// JSON, YAML or TOML configuration file; flags and environment win.
type CLI struct {
	Config  string           `help:"Path to a configuration file" type:"path" env:"METAGEN_CONFIG"`
	Version kong.VersionFlag `help:"Print the version and exit"`
	Log     Log              `embed:"" prefix:"log."`

	Generate Generate      `cmd:"" default:"withargs" help:"Generate meta-objects from Go sources and HCL manifests"`
	Dump     Dump          `cmd:"" help:"Decode generated meta-objects and print them"`
	Cfg      ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
}

// Log holds the logging flags shared by every command.
type Log struct {
	Level    string `help:"Log level: trace, debug, info, warn, error" default:"info" enum:"trace,debug,info,warn,error" env:"METAGEN_LOG_LEVEL"`
	File     string `help:"Write all log records to this file; the console then only shows errors" env:"METAGEN_LOG_FILE"`
	JSON     bool   `help:"Log as JSON" env:"METAGEN_LOG_JSON"`
	BlobFile string `help:"Hex dump every serialized blob to this file (trace level dumps to stdout)" env:"METAGEN_LOG_BLOB_FILE"`
}
