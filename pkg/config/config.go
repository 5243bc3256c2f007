// Package config manages the persistent global settings shared by the
// funck CLIs (cmd/funck and cmd/funck-deploy): default server address,
// default artifact/tmp directories, and the handful of other values a user
// would otherwise have to pass as flags on every invocation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	// Filename into which Global is serialized.
	Filename = "config.yaml"

	// DefaultListenAddr is used by `funck` when unset.
	DefaultListenAddr = ":8080"

	// DefaultServerURL is used by `funck-deploy` when unset.
	DefaultServerURL = "http://localhost:8080"
)

// Global configuration settings shared across funck CLI invocations.
type Global struct {
	ServerURL   string `yaml:"serverURL,omitempty"`
	ListenAddr  string `yaml:"listenAddr,omitempty"`
	ArtifactDir string `yaml:"artifactDir,omitempty"`
	TmpDir      string `yaml:"tmpDir,omitempty"`
	Verbose     bool   `yaml:"verbose,omitempty"`
}

// New returns a Global populated with static defaults.
func New() Global {
	return Global{
		ServerURL:  DefaultServerURL,
		ListenAddr: DefaultListenAddr,
	}
}

// NewDefault returns a Global populated by static defaults, overridden by
// whatever is present in the config file at File() (which is not required
// to exist).
func NewDefault() (cfg Global, err error) {
	cfg = New()
	bb, err := os.ReadFile(File())
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
		}
		return
	}
	err = yaml.Unmarshal(bb, &cfg)
	return
}

// Load the config exactly as it exists at path, with no static defaults
// applied first.
func Load(path string) (c Global, err error) {
	bb, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("error reading global config: %v", err)
	}
	err = yaml.Unmarshal(bb, &c)
	return
}

// Write the config to path.
func (c Global) Write(path string) error {
	bb, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bb, 0o644)
}

// Dir is the directory holding the global config file: $XDG_CONFIG_HOME/funck
// if set, else ~/.config/funck, else the zero value (no home directory
// available — callers should treat that as "no config path available").
func Dir() (path string) {
	if home, err := os.UserHomeDir(); err == nil {
		path = filepath.Join(home, ".config", "funck")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		path = filepath.Join(xdg, "funck")
	}
	return
}

// File returns the full path at which to look for a config file. Honors
// FUNCK_CONFIG_FILE as an override.
func File() string {
	path := filepath.Join(Dir(), Filename)
	if e := os.Getenv("FUNCK_CONFIG_FILE"); e != "" {
		path = e
	}
	return path
}

// CreatePaths creates the on-disk config directory structure. Operations
// that only read config tolerate a nonexistent path; writing requires it.
func CreatePaths() error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("error creating global config path: %v", err)
	}
	return nil
}

// List the globally configurable settings by the yaml key usable with Get
// and Set.
func List() []string {
	var keys []string
	t := reflect.TypeOf(Global{})
	for i := 0; i < t.NumField(); i++ {
		tt := strings.Split(t.Field(i).Tag.Get("yaml"), ",")
		keys = append(keys, tt[0])
	}
	sort.Strings(keys)
	return keys
}

// Get the named setting's current value. Returns nil if name is unknown.
func Get(c Global, name string) any {
	t := reflect.TypeOf(c)
	for i := 0; i < t.NumField(); i++ {
		if !strings.HasPrefix(t.Field(i).Tag.Get("yaml"), name) {
			continue
		}
		return reflect.ValueOf(c).FieldByName(t.Field(i).Name).Interface()
	}
	return nil
}

// Set the named setting to value, coercing value (a string) into the
// field's actual type. Fails if name is unknown or value cannot be
// coerced.
func Set(c Global, name, value string) (Global, error) {
	fieldValue, err := getField(&c, name)
	if err != nil {
		return c, err
	}

	var v reflect.Value
	switch fieldValue.Kind() {
	case reflect.String:
		v = reflect.ValueOf(value)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return c, err
		}
		v = reflect.ValueOf(boolValue)
	default:
		return c, fmt.Errorf("global config value type not yet implemented: %v", fieldValue.Kind())
	}
	fieldValue.Set(v)
	return c, nil
}

func getField(c *Global, name string) (reflect.Value, error) {
	t := reflect.TypeOf(c).Elem()
	for i := 0; i < t.NumField(); i++ {
		if strings.HasPrefix(t.Field(i).Tag.Get("yaml"), name) {
			return reflect.ValueOf(c).Elem().FieldByName(t.Field(i).Name), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("field not found on global config: %v", name)
}
