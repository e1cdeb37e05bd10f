package executer

// Targets maps ids to install-target directory overrides at one priority
// tier (package, section, or chapter); spec §4.3 install resolution reads
// package first, then section, then chapter.
type Targets struct {
	Packages map[string]string `toml:"packages"`
	Sections map[string]string `toml:"sections"`
	Chapters map[string]string `toml:"chapters"`
}

// Selector is a {packages, sections, chapters} id list used by [chroot],
// [host], and [package].
type Selector struct {
	Packages []string `toml:"packages"`
	Sections []string `toml:"sections"`
	Chapters []string `toml:"chapters"`
}

// Main is [main] in executer.toml.
type Main struct {
	ChrootDir           string   `toml:"chroot_dir"`
	UploadRepo          string   `toml:"upload_repo"`
	DownloadRepos       []string `toml:"download_repos"`
	PackageFormat       string   `toml:"package_format"`
	PackageNameTemplate string   `toml:"package_name_template"`
	DefaultExtractDir   string   `toml:"default_extract_dir"`
	RequireConfirmRoot  bool     `toml:"require_confirm_root"`
}

// Extract is [extract] in executer.toml, holding the target override tables.
type Extract struct {
	Targets Targets `toml:"targets"`
}

// Packages mirrors [packages] for the exclude sub-table, spec §4.3
// "Packaging inclusion".
type Packages struct {
	Exclude Selector `toml:"exclude"`
}

// Config is the full executer.toml schema.
type Config struct {
	Main     Main     `toml:"main"`
	Chroot   Selector `toml:"chroot"`
	Host     Selector `toml:"host"`
	Package  Selector `toml:"package"`
	Packages Packages `toml:"packages"`
	Extract  Extract  `toml:"extract"`
}
