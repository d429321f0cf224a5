package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ArtifactExt is the extension of the extractor's upstream build artifacts.
const ArtifactExt = ".ilean"

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// artifact is one hashed file.
type artifact struct {
	relPath string
	mtime   int64
	size    int64
}

// ArtifactDir returns the directory holding compiled artifacts for the
// project at root.
func ArtifactDir(root string) string {
	return filepath.Join(root, ".lake", "build", "lib", "lean")
}

// collectArtifacts lists the project's own artifacts under buildDir.
//
// When buildDir/<project> exists, only buildDir/<project>.ilean and
// buildDir/<project>/** are tracked. Otherwise every top-level file and
// subdirectory whose name is not an excluded library is scanned.
func collectArtifacts(buildDir, project string, excluded map[string]bool) ([]artifact, error) {
	if _, err := os.Stat(buildDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var roots []string
	if info, err := os.Stat(filepath.Join(buildDir, project)); err == nil && info.IsDir() {
		roots = []string{filepath.Join(buildDir, project), filepath.Join(buildDir, project+ArtifactExt)}
	} else {
		entries, err := os.ReadDir(buildDir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			name := strings.TrimSuffix(e.Name(), ArtifactExt)
			if excluded[name] {
				continue
			}
			roots = append(roots, filepath.Join(buildDir, e.Name()))
		}
	}

	var files []artifact
	for _, r := range roots {
		err := filepath.WalkDir(r, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == r {
					return nil
				}
				return err
			}
			if d.IsDir() || d.Type()&fs.ModeSymlink != 0 || filepath.Ext(path) != ArtifactExt {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(buildDir, path)
			if err != nil {
				return err
			}
			files = append(files, artifact{
				relPath: filepath.ToSlash(rel),
				mtime:   info.ModTime().UnixNano(),
				size:    info.Size(),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", r, err)
		}
	}

	slices.SortFunc(files, func(a, b artifact) int { return strings.Compare(a.relPath, b.relPath) })
	return files, nil
}

// hashArtifacts folds the sorted artifact records into one digest.
// An empty list hashes to "".
func hashArtifacts(files []artifact) string {
	if len(files) == 0 {
		return ""
	}
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", f.relPath, f.mtime, f.size)
	}
	return hex.EncodeToString(h.Sum(nil))
}
