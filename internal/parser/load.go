package parser

import (
	"github.com/BurntSushi/toml"

	"github.com/scratchkit/skw/internal/skwerr"
)

var knownTopKeys = map[string]bool{
	"main": true, "xpaths": true, "chapter_filters": true,
	"section_filters": true, "custom_code": true, "ordered_build_groups": true,
}

// LoadConfig decodes parser.toml, including its dynamic `[<id>.xpaths]`
// per-chapter/per-section override tables (BurntSushi/toml has no first-class
// "everything else" field, so those are recovered via a raw-primitive pass).
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	raw := make(map[string]toml.Primitive)
	_, err := toml.DecodeFile(path, &struct {
		Main           *Main           `toml:"main"`
		XPaths         *map[string]string `toml:"xpaths"`
		ChapterFilters *Filters        `toml:"chapter_filters"`
		SectionFilters *Filters        `toml:"section_filters"`
		CustomCode     *CustomCode     `toml:"custom_code"`
		OrderedGroups  *[]OrderedGroup `toml:"ordered_build_groups"`
	}{&cfg.Main, &cfg.XPaths, &cfg.ChapterFilters, &cfg.SectionFilters, &cfg.CustomCode, &cfg.OrderedGroups})
	if err != nil {
		return nil, skwerr.Wrap(skwerr.ConfigInvalid, err, "parser config %s", path)
	}

	// Second pass purely to recover the dynamic per-id tables; decoding twice
	// is simpler and just as correct as threading toml.Primitive through the
	// typed struct above.
	var genericTop map[string]toml.Primitive
	meta2, err := toml.DecodeFile(path, &genericTop)
	if err != nil {
		return nil, skwerr.Wrap(skwerr.ConfigInvalid, err, "parser config %s", path)
	}
	raw = genericTop

	cfg.Overrides = make(map[string]ScopedXPaths)
	for key, prim := range raw {
		if knownTopKeys[key] {
			continue
		}
		var scoped ScopedXPaths
		if err := meta2.PrimitiveDecode(prim, &scoped); err != nil {
			continue // not a {xpaths=...} table; ignore (e.g. a stray top-level scalar)
		}
		if scoped.XPaths != nil {
			cfg.Overrides[key] = scoped
		}
	}

	if cfg.Main.XMLPath == "" || cfg.Main.OutputFile == "" {
		return nil, skwerr.New(skwerr.ConfigInvalid, "parser config %s: [main] requires xml_path and output_file", path)
	}
	return &cfg, nil
}
