package cache

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
)

// DefaultExcludedLibraries names the dependency libraries whose build
// artifacts never belong to the current project.
var DefaultExcludedLibraries = []string{
	"Mathlib", "Batteries", "Aesop", "ProofWidgets", "Qq", "ImportGraph",
	"Lean", "Lake", "Init", "Std", "LeanSearchClient", "Plausible",
}

var (
	leanLibRegex = regexp.MustCompile(`lean_lib\s+(\w+)`)
	packageRegex = regexp.MustCompile(`package\s+(\w+)`)
)

// lakefileTOML holds the parts of lakefile.toml used to name a project.
type lakefileTOML struct {
	Name    string `toml:"name"`
	LeanLib []struct {
		Name string `toml:"name"`
	} `toml:"lean_lib"`
}

// ProjectName returns the library name of the project at root.
//
// The name comes from the first "lean_lib X" in lakefile.lean (falling back to
// "package X"), then from the first [[lean_lib]] name in lakefile.toml
// (falling back to the top-level name), then from the directory name.
func ProjectName(root string) string {
	if data, err := os.ReadFile(filepath.Join(root, "lakefile.lean")); err == nil {
		if m := leanLibRegex.FindSubmatch(data); m != nil {
			return string(m[1])
		}
		if m := packageRegex.FindSubmatch(data); m != nil {
			return string(m[1])
		}
	}

	var lf lakefileTOML
	if _, err := toml.DecodeFile(filepath.Join(root, "lakefile.toml"), &lf); err == nil {
		for _, lib := range lf.LeanLib {
			if lib.Name != "" {
				return lib.Name
			}
		}
		if lf.Name != "" {
			return lf.Name
		}
	}

	return filepath.Base(filepath.Clean(root))
}
