package main

import (
	"os"
	"strings"

	"github.com/Alia5/metagen/internal/cmd"
	"github.com/Alia5/metagen/internal/codegen"
	"github.com/Alia5/metagen/internal/configpaths"
	"github.com/Alia5/metagen/internal/log"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {

	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	version, err := codegen.GetVersion()
	if err != nil {
		version = codegen.Version
	}

	var cli cmd.CLI
	ctx := kong.Parse(&cli,
		kong.Name("metagen"),
		kong.Description("Reflection metadata generator for Qt-compatible meta-objects"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		// Load configuration from JSON/YAML/TOML in priority order; flags/env override config values.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(log.Options{
		Level: cli.Log.Level,
		File:  cli.Log.File,
		JSON:  cli.Log.JSON,
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	var blobLogger log.BlobLogger
	if cli.Log.BlobFile != "" {
		f, err := os.OpenFile(cli.Log.BlobFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open blob dump file", "file", cli.Log.BlobFile, "error", err)
			blobLogger = log.NewBlob(nil)
		} else {
			blobLogger = log.NewBlob(f)
			closeFiles = append(closeFiles, f)
		}
	} else if cli.Log.Level == "trace" {
		blobLogger = log.NewBlob(os.Stdout)
	} else {
		blobLogger = log.NewBlob(nil)
	}

	ctx.Bind(logger)
	ctx.BindTo(blobLogger, (*log.BlobLogger)(nil))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if v := os.Getenv("METAGEN_CONFIG"); v != "" {
		return v
	}
	return ""
}
