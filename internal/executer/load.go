package executer

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/scratchkit/skw/internal/skwerr"
)

// LoadConfig reads executer.toml at path, applying the defaults the spec
// leaves implicit: package_format defaults to "tar.xz", default_extract_dir
// to "/", and require_confirm_root to true when the key is absent (BurntSushi
// leaves a missing bool at its Go zero value, which would silently flip the
// safe default to false — so presence is checked via the decode MetaData
// rather than trusted to the zero value).
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, skwerr.Wrap(skwerr.ConfigMissing, err, "executer config %s", path)
		}
		return nil, skwerr.Wrap(skwerr.ConfigInvalid, err, "executer config %s", path)
	}
	if cfg.Main.PackageNameTemplate == "" {
		return nil, skwerr.New(skwerr.ConfigInvalid, "executer config %s: main.package_name_template is required", path)
	}
	if cfg.Main.PackageFormat == "" {
		cfg.Main.PackageFormat = "tar.xz"
	}
	if cfg.Main.DefaultExtractDir == "" {
		cfg.Main.DefaultExtractDir = "/"
	}
	if !meta.IsDefined("main", "require_confirm_root") {
		cfg.Main.RequireConfirmRoot = true
	}
	return &cfg, nil
}
