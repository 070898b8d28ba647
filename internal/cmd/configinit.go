package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/Alia5/padlink/internal/configpaths"
)

type ConfigCmd struct {
	Init ConfigInit `cmd:"" help:"Write a configuration file holding the current defaults"`
	Path ConfigPath `cmd:"" help:"Print the configuration file in use"`
}

type ConfigInit struct {
	Format string `help:"File format: json, yaml or toml" default:"yaml" enum:"json,yaml,toml"`
	For    string `help:"Command whose settings are written" default:"receive" enum:"send,receive,input-test,motor-test"`
	Output string `help:"Output file, or - for stdout (default: <user config dir>/padlink/config.<format>)" placeholder:"PATH"`
	Force  bool   `help:"Overwrite an existing file"`
}

// Run is called by Kong when the config init command is executed.
func (c *ConfigInit) Run(logger *slog.Logger, kctx *kong.Context) error {
	settings, err := collectDefaults(kctx.Model, c.For)
	if err != nil {
		return err
	}
	data, err := renderConfig(settings, c.Format)
	if err != nil {
		return err
	}

	if c.Output == "-" {
		_, err := kctx.Stdout.Write(data)
		return err
	}
	path := c.Output
	if path == "" {
		dir, err := configpaths.DefaultConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, configpaths.BaseName+"."+c.Format)
	}
	if err := writeConfigFile(path, data, c.Force); err != nil {
		return err
	}
	logger.Info("configuration written", "file", path, "command", c.For)
	return nil
}

func writeConfigFile(path string, data []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// setting is one flag default. command is empty for global flags.
type setting struct {
	command string
	name    string
	value   any
}

var durationType = reflect.TypeOf(time.Duration(0))

// collectDefaults returns the defaults of the global flags and of command.
func collectDefaults(app *kong.Application, command string) ([]setting, error) {
	var out []setting
	out = appendFlagDefaults(out, "", app.Flags)

	var node *kong.Node
	for _, child := range app.Children {
		if child.Type == kong.CommandNode && child.Name == command {
			node = child
			break
		}
	}
	if node == nil {
		return nil, fmt.Errorf("unknown command %q", command)
	}
	return appendFlagDefaults(out, command, node.Flags), nil
}

func appendFlagDefaults(out []setting, command string, flags []*kong.Flag) []setting {
	for _, f := range flags {
		if f.Hidden || f.Default == "" || f.Name == "help" {
			continue
		}
		out = append(out, setting{command: command, name: f.Name, value: typedDefault(f)})
	}
	return out
}

func typedDefault(f *kong.Flag) any {
	if !f.Target.IsValid() || f.Target.Type() == durationType {
		return f.Default
	}
	switch f.Target.Kind() {
	case reflect.Bool:
		if v, err := strconv.ParseBool(f.Default); err == nil {
			return v
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v, err := strconv.ParseInt(f.Default, 10, 64); err == nil {
			return v
		}
	case reflect.Float32, reflect.Float64:
		if v, err := strconv.ParseFloat(f.Default, 64); err == nil {
			return v
		}
	}
	return f.Default
}

// renderConfig lays settings out the way each kong loader looks them up.
// The JSON resolver splits flag names on dots and wants underscores. The
// YAML and TOML loaders nest command flags under the command name and keep
// flag names as they are.
func renderConfig(settings []setting, format string) ([]byte, error) {
	switch format {
	case "json":
		tree := map[string]any{}
		for _, s := range settings {
			setPath(tree, strings.Split(strings.ReplaceAll(s.name, "-", "_"), "."), s.value)
		}
		b, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case "yaml":
		return yaml.Marshal(commandTree(settings))
	case "toml":
		t, err := toml.TreeFromMap(commandTree(settings))
		if err != nil {
			return nil, err
		}
		return t.Marshal()
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func commandTree(settings []setting) map[string]any {
	tree := map[string]any{}
	for _, s := range settings {
		if s.command == "" {
			tree[s.name] = s.value
			continue
		}
		setPath(tree, []string{s.command, s.name}, s.value)
	}
	return tree
}

func setPath(tree map[string]any, path []string, value any) {
	for _, p := range path[:len(path)-1] {
		next, ok := tree[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			tree[p] = next
		}
		tree = next
	}
	tree[path[len(path)-1]] = value
}

var errNoConfig = errors.New("no configuration file found")

// loadedConfigPath returns the first existing candidate file.
func loadedConfigPath(userPath string) (string, error) {
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userPath)
	for _, group := range [][]string{jsonPaths, yamlPaths, tomlPaths} {
		for _, p := range group {
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", errNoConfig
}

// ConfigPath prints the configuration file padlink would load.
type ConfigPath struct{}

// Run is called by Kong when the config path command is executed.
func (c *ConfigPath) Run(kctx *kong.Context) error {
	var userPath string
	for _, f := range kctx.Flags() {
		if f.Name == "config" {
			userPath, _ = kctx.FlagValue(f).(string)
		}
	}
	path, err := loadedConfigPath(userPath)
	if errors.Is(err, errNoConfig) {
		_, err = fmt.Fprintln(kctx.Stdout, "none (using defaults)")
		return err
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(kctx.Stdout, path)
	return err
}
