package repository

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// jsExtensions is the set of file extensions Workspace collects.
var jsExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true,
}

// Workspace is a directory tree containing one or more Node projects,
// each rooted at a package.json. It is the thin convenience the test
// suite uses to build realistic multi-repo fixtures on disk (spec §6
// explicitly leaves real file discovery to the embedding host; this
// exists only so `match`/`carrick` tests can author fixtures as files
// instead of hand-built model.SourceUnit slices).
type Workspace struct {
	Root     string
	Detector *Detector
}

// NewWorkspace wraps root with a Detector.
func NewWorkspace(root string) *Workspace {
	return &Workspace{Root: root, Detector: New()}
}

// Repositories walks Root and groups every JS/TS source file under the
// nearest enclosing project root (the nearest directory holding any of
// the Detector's markers: package.json, tsconfig.json, go.mod or .git),
// one group per repository. Files outside any detected project root are
// grouped under Root itself.
func (w *Workspace) Repositories() (map[string][]string, error) {
	groups := map[string][]string{}
	err := filepath.Walk(w.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "node_modules" || info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !jsExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		project, err := w.Detector.DetectProject(path, w.Root)
		if err != nil {
			return err
		}
		groups[project.RootPath] = append(groups[project.RootPath], path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for root := range groups {
		sort.Strings(groups[root])
	}
	return groups, nil
}
