package parser

import (
	"path/filepath"

	"github.com/scratchkit/skw/internal/config"
	"github.com/scratchkit/skw/internal/plan"
	"github.com/scratchkit/skw/internal/xpathx"
)

// injectCustomPackages loads every file named in cfg.CustomCode.Configs and
// turns each [[custom_packages]] table into a Build Entry, per spec §4.1
// "Custom-package injection".
func injectCustomPackages(profileDir string, doc *xpathx.Doc, cfg *Config) (plan.Plan, error) {
	var out plan.Plan
	for _, filename := range cfg.CustomCode.Configs {
		var cp CustomPackages
		if err := config.DecodeProfileTOML(filepath.Join(profileDir, filename), &cp); err != nil {
			return nil, err
		}
		for _, c := range cp.Packages {
			instructions := append([]string{}, c.Commands...)
			for _, expr := range c.XPathCommands {
				results, err := doc.Find(expr)
				if err != nil {
					return nil, err
				}
				for _, n := range results {
					instructions = append(instructions, xpathx.NodeText(n))
				}
			}
			out = append(out, &plan.Entry{
				ChapterID:         c.ChapterID,
				SectionID:         c.SectionID,
				PackageName:       c.Name,
				PackageVersion:    c.Version,
				Dependencies:      c.Dependencies,
				BuildInstructions: instructions,
			})
		}
	}
	return out, nil
}
