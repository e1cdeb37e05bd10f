package main

import (
	"fmt"

	"github.com/scratchkit/skw/internal/archivefmt"
)

// inspectArchive prints the file manifest of a package archive, adapted
// from the teacher's check_deps.go dependency-listing command to the
// archive-manifest concern this repo actually has (SPEC_FULL §13).
func inspectArchive(path string) error {
	files, err := archivefmt.ManifestFromTar(path)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}
