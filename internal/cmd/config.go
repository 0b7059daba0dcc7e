package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/Alia5/metagen/internal/configpaths"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a configuration template"`
}

// ConfigInit scaffolds a configuration file for a specific command.
type ConfigInit struct {
	Command string `arg:"" name:"command" help:"Command to generate config for" enum:"generate,dump"`
	Format  string `help:"Output format" enum:"json,yaml,yml,toml" default:"json"`
	Output  string `help:"Destination file path (defaults to <command>.<ext> in the current directory)"`
	User    bool   `help:"Write to the per-user configuration directory instead"`
	Force   bool   `help:"Overwrite if the file already exists"`
}

// Run generates a configuration template by reflecting over the command
// struct and its kong tags.
func (c *ConfigInit) Run() error {
	data, err := c.Render()
	if err != nil {
		return err
	}

	dest := c.Output
	switch {
	case dest != "":
	case c.User:
		if dest, err = configpaths.DefaultConfigPath(c.Format); err != nil {
			return err
		}
	default:
		dest = c.Command + "." + configpaths.Ext(c.Format)
	}

	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

// Render encodes the template for c.Command in c.Format.
func (c *ConfigInit) Render() ([]byte, error) {
	var root map[string]any
	switch c.Command {
	case "generate":
		root = buildMapFromStruct(reflect.TypeOf(Generate{}))
	case "dump":
		root = buildMapFromStruct(reflect.TypeOf(Dump{}))
	default:
		return nil, errors.New("unknown command; expected 'generate' or 'dump'")
	}
	root["log"] = buildMapFromStruct(reflect.TypeOf(Log{}))

	switch configpaths.Ext(strings.ToLower(c.Format)) {
	case "yaml":
		return yaml.Marshal(root)
	case "toml":
		return toml.Marshal(root)
	case "json":
		if f := strings.ToLower(c.Format); f != "json" && f != "" {
			return nil, fmt.Errorf("unsupported format: %s", c.Format)
		}
		return json.MarshalIndent(root, "", "  ")
	}
	return nil, fmt.Errorf("unsupported format: %s", c.Format)
}

// flagKey is the key kong's configuration resolvers look a flag up by: the
// flag name with dashes written as underscores, e.g. GoFile -> go_file.
func flagKey(field string) string {
	r := []rune(field)
	var b strings.Builder
	for i, c := range r {
		if unicode.IsUpper(c) && i > 0 {
			prevLower := unicode.IsLower(r[i-1]) || unicode.IsDigit(r[i-1])
			nextLower := i+1 < len(r) && unicode.IsLower(r[i+1])
			if prevLower || (unicode.IsUpper(r[i-1]) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(c))
	}
	return b.String()
}

// buildMapFromStruct maps every configurable field to its default. Positional
// arguments are skipped because kong only reads flags from configuration.
func buildMapFromStruct(t reflect.Type) map[string]any {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("kong") == "-" {
			continue
		}
		if _, ok := f.Tag.Lookup("arg"); ok {
			continue
		}

		if _, ok := f.Tag.Lookup("embed"); ok {
			prefix := f.Tag.Get("prefix")
			name := strings.TrimSuffix(prefix, ".")
			sub := buildMapFromStruct(f.Type)
			if name != "" {
				out[name] = sub
			} else {
				for k, v := range sub {
					out[k] = v
				}
			}
			continue
		}

		key := flagKey(f.Name)
		if name := f.Tag.Get("name"); name != "" {
			key = strings.ReplaceAll(name, "-", "_")
		}
		if val := defaultValueForField(f.Type, f.Tag.Get("default")); val != nil {
			out[key] = val
		}
	}
	return out
}

func defaultValueForField(t reflect.Type, def string) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return def // may be empty
	case reflect.Bool:
		b, err := strconv.ParseBool(def)
		if err != nil {
			return false
		}
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(def, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case reflect.Slice:
		if t.Elem().Kind() != reflect.String || def == "" {
			return nil
		}
		return strings.Split(def, ",")
	case reflect.Struct:
		return buildMapFromStruct(t)
	default:
		return nil
	}
}
