package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"puppetfleet/internal/common/fsutil"
)

// SSH holds connection settings. Host-level values override the file-level ones.
type SSH struct {
	User       string `json:"user" yaml:"user" toml:"user"`
	Port       int    `json:"port" yaml:"port" toml:"port"`
	KeyFile    string `json:"key_file" yaml:"key_file" toml:"key_file"`
	KnownHosts string `json:"known_hosts" yaml:"known_hosts" toml:"known_hosts"`
}

// HostSpec describes one host as written in an inventory file.
type HostSpec struct {
	Name       string            `json:"name" yaml:"name" toml:"name"`
	Address    string            `json:"address" yaml:"address" toml:"address"`
	Roles      []string          `json:"roles" yaml:"roles" toml:"roles"`
	Platform   string            `json:"platform" yaml:"platform" toml:"platform"`
	Transport  string            `json:"transport" yaml:"transport" toml:"transport"`
	SSH        SSH               `json:"ssh" yaml:"ssh" toml:"ssh"`
	Attributes map[string]string `json:"attributes" yaml:"attributes" toml:"attributes"`
}

// File is the on-disk inventory. Defaults are attributes every host starts
// with before its own attributes are applied.
type File struct {
	Defaults map[string]string `json:"defaults" yaml:"defaults" toml:"defaults"`
	SSH      SSH               `json:"ssh" yaml:"ssh" toml:"ssh"`
	Hosts    []HostSpec        `json:"hosts" yaml:"hosts" toml:"hosts"`
}

// Load reads an inventory file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (File, error) {
	var f File
	if path == "" {
		return f, fmt.Errorf("empty inventory path")
	}
	path, err := fsutil.ExpandHome(path)
	if err != nil {
		return f, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &f); err != nil {
			return f, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &f); err != nil {
			return f, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &f); err != nil {
			return f, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return f, fmt.Errorf("unsupported inventory extension: %s", ext)
	}
	return f, nil
}

// LoadInventory reads path and builds the Inventory it describes.
func LoadInventory(path string) (*Inventory, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	return New(f)
}
