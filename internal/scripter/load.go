package scripter

import (
	"github.com/BurntSushi/toml"

	"github.com/scratchkit/skw/internal/skwerr"
)

var knownTopKeys = map[string]bool{"main": true, "global": true}

// LoadConfig decodes scripter.toml including its dynamic per-chapter,
// per-section, and per-package override tables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &struct {
		Main   *Main   `toml:"main"`
		Global *Global `toml:"global"`
	}{&cfg.Main, &cfg.Global}); err != nil {
		return nil, skwerr.Wrap(skwerr.ConfigInvalid, err, "scripter config %s", path)
	}

	var genericTop map[string]toml.Primitive
	meta, err := toml.DecodeFile(path, &genericTop)
	if err != nil {
		return nil, skwerr.Wrap(skwerr.ConfigInvalid, err, "scripter config %s", path)
	}

	cfg.Overrides = make(map[string]ScopeRules)
	for key, prim := range genericTop {
		if knownTopKeys[key] {
			continue
		}
		var scoped ScopeRules
		if err := meta.PrimitiveDecode(prim, &scoped); err != nil {
			continue
		}
		cfg.Overrides[key] = scoped
	}

	if cfg.Main.DefaultTemplate == "" {
		cfg.Main.DefaultTemplate = "template.script"
	}
	return &cfg, nil
}
