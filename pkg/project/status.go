package project

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/astrolabe/pkg/cache"
	"github.com/matzehuels/astrolabe/pkg/storage"
)

// Status describes what is on disk for a project directory.
type Status struct {
	IsLeanProject bool   `json:"is_lean_project"`
	HasLakeDir    bool   `json:"has_lake_dir"`
	HasBuildCache bool   `json:"has_build_cache"`
	HasIleanFiles bool   `json:"has_ilean_files"`
	UsesMathlib   bool   `json:"uses_mathlib"`
	LeanVersion   string `json:"lean_version,omitempty"`
	NeedsInit     bool   `json:"needs_init"`
	HasSnapshot   bool   `json:"has_snapshot"`
	HasOverlay    bool   `json:"has_overlay"`
}

var requireMathlib = regexp.MustCompile(`(?i)require\s+.*mathlib`)

type lakefileRequires struct {
	Require []struct {
		Name string `toml:"name"`
	} `toml:"require"`
}

// DetectStatus inspects the project at root. Unreadable files count as
// absent; DetectStatus never fails.
//
// A project needs initialization when it has a lakefile but no compiled
// .ilean artifacts for the extractor to read.
func DetectStatus(root, dataDir string) Status {
	var st Status
	lean := filepath.Join(root, "lakefile.lean")
	tomlPath := filepath.Join(root, "lakefile.toml")
	st.IsLeanProject = fileExists(lean) || fileExists(tomlPath)

	st.HasLakeDir = dirExists(filepath.Join(root, ".lake"))
	build := filepath.Join(root, ".lake", "build")
	st.HasBuildCache = dirExists(build)
	if st.HasBuildCache {
		st.HasIleanFiles = hasArtifacts(filepath.Join(build, "lib"))
	}

	switch {
	case fileExists(lean):
		if data, err := os.ReadFile(lean); err == nil {
			st.UsesMathlib = requireMathlib.Match(data)
		}
	case fileExists(tomlPath):
		st.UsesMathlib = tomlRequiresMathlib(tomlPath)
	}

	if data, err := os.ReadFile(filepath.Join(root, "lean-toolchain")); err == nil {
		st.LeanVersion = strings.TrimSpace(string(data))
	}
	st.NeedsInit = st.IsLeanProject && !st.HasIleanFiles

	if dataDir == "" {
		dataDir = cache.DefaultDataDir
	}
	st.HasSnapshot = fileExists(filepath.Join(root, dataDir, cache.SnapshotFile))
	st.HasOverlay = fileExists(filepath.Join(root, dataDir, storage.OverlayFile))
	return st
}

// tomlRequiresMathlib reports whether a [[require]] entry names mathlib. A
// lakefile that does not parse falls back to a substring check.
func tomlRequiresMathlib(path string) bool {
	var lf lakefileRequires
	if _, err := toml.DecodeFile(path, &lf); err != nil {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(strings.ToLower(string(data)), "mathlib")
	}
	for _, r := range lf.Require {
		if strings.EqualFold(r.Name, "mathlib") {
			return true
		}
	}
	return false
}

func hasArtifacts(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == cache.ArtifactExt {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
