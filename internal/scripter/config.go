package scripter

// ScopeRules is a `[<id>]` table carrying an optional template override and
// regex/literal rewrite rules.
type ScopeRules struct {
	Template string   `toml:"template"`
	Regex    []string `toml:"patterns"`
}

// Main is the `[main]` table of scripter.toml.
type Main struct {
	DefaultTemplate string `toml:"default_template"`
}

// Global is the `[global.regex]` table: rules applied to every entry first.
type Global struct {
	Regex struct {
		Patterns []string `toml:"patterns"`
	} `toml:"regex"`
}

// Config is the full scripter.toml schema, plus the dynamic per-id tables
// recovered separately (see load.go, mirroring internal/parser's approach).
type Config struct {
	Main      Main                  `toml:"main"`
	Global    Global                `toml:"global"`
	Overrides map[string]ScopeRules `toml:"-"`
}
