// Package repository locates project/repository roots from a file path,
// adapted from the teacher's inspector/repository.Detector: the same
// marker-file walk generalized with a package.json/tsconfig.json marker
// set alongside go.mod and .git, so one Detector
// serves both ecosystems.
package repository

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"
)

// Project describes a detected project root.
type Project struct {
	RootPath     string
	Type         string // "node", "go", "git", "unknown"
	Name         string
	RelativePath string
	GoModule     *modfile.Module
}

// Repository describes a detected repository (git or bare project).
type Repository struct {
	Kind   string
	Root   string
	Origin string
	Info   *Project
}

// Detector walks up from a file path looking for project root markers.
type Detector struct {
	markers []string
}

// New creates a Detector recognizing Node and Go project markers plus a
// generic VCS marker.
func New() *Detector {
	return &Detector{
		markers: []string{
			"package.json",
			"tsconfig.json",
			"go.mod",
			".git",
		},
	}
}

// DetectProject identifies the project root for filePath.
func (d *Detector) DetectProject(filePath string, baseURL ...string) (*Project, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}
	startDir := absPath
	if fileInfo, err := os.Stat(absPath); err == nil && !fileInfo.IsDir() {
		startDir = filepath.Dir(absPath)
	}

	rootPath, projectType := d.findProjectRoot(startDir)
	info := &Project{Type: "unknown", RootPath: absPath}
	if rootPath == "" && len(baseURL) > 0 && baseURL[0] != "" {
		info.RootPath = baseURL[0]
	} else if rootPath != "" {
		info.RootPath = rootPath
		info.Type = projectType
	}

	relPath, err := filepath.Rel(info.RootPath, absPath)
	if err != nil {
		relPath = filepath.Base(absPath)
	}
	info.RelativePath = filepath.ToSlash(relPath)

	if projectType != "" {
		info.Name = d.extractProjectName(rootPath, projectType)
	}
	return info, nil
}

// DetectRepository identifies the repository (preferring a git root)
// containing filePath.
func (d *Detector) DetectRepository(filePath string) (*Repository, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}
	startDir := absPath
	if fileInfo, err := os.Stat(absPath); err == nil && !fileInfo.IsDir() {
		startDir = filepath.Dir(absPath)
	}

	if gitRoot := d.findGitRoot(startDir); gitRoot != "" {
		repo := &Repository{Kind: "git", Root: gitRoot, Origin: d.extractGitOrigin(gitRoot)}
		if info, err := d.DetectProject(filePath); err == nil {
			repo.Info = info
		}
		return repo, nil
	}

	info, err := d.DetectProject(filePath)
	if err != nil {
		return nil, err
	}
	return &Repository{Kind: info.Type, Root: info.RootPath, Info: info}, nil
}

// DetectNodeProject is a narrower convenience over DetectProject for the
// test suite's multi-repo fixture loader: it only recognizes a project
// whose nearest marker is package.json or tsconfig.json (type "node"),
// returning ok=false otherwise.
func (d *Detector) DetectNodeProject(dir string) (*Project, bool) {
	info, err := d.DetectProject(dir)
	if err != nil || info.Type != "node" {
		return nil, false
	}
	return info, true
}

func (d *Detector) findProjectRoot(startDir string) (string, string) {
	dir := startDir
	for {
		for _, marker := range d.markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, determineProjectType(marker)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ""
}

func (d *Detector) findGitRoot(startDir string) string {
	dir := startDir
	homeDir := os.Getenv("HOME")
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if homeDir == parent {
			return ""
		}
		dir = parent
	}
	return ""
}

func (d *Detector) extractGitOrigin(gitRoot string) string {
	configPath := filepath.Join(gitRoot, ".git", "config")
	file, err := os.Open(configPath)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	foundRemote := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, `[remote "origin"]`) {
			foundRemote = true
			continue
		}
		if foundRemote && strings.HasPrefix(line, "url = ") {
			return strings.TrimPrefix(line, "url = ")
		}
	}
	return ""
}

func (d *Detector) extractProjectName(rootPath, projectType string) string {
	switch projectType {
	case "go":
		return extractGoModuleName(filepath.Join(rootPath, "go.mod"))
	case "node":
		if name := extractJSPackageName(filepath.Join(rootPath, "package.json")); name != "" {
			return name
		}
		return filepath.Base(rootPath)
	case "git":
		return extractGitProjectName(rootPath)
	default:
		return filepath.Base(rootPath)
	}
}

func extractGoModuleName(goModPath string) string {
	fs := afs.New()
	if content, _ := fs.DownloadWithURL(context.Background(), goModPath); len(content) > 0 {
		if mod, _ := modfile.Parse(goModPath, content, nil); mod != nil {
			return mod.Module.Mod.Path
		}
	}
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return filepath.Base(filepath.Dir(goModPath))
	}
	matches := regexp.MustCompile(`module\s+(\S+)`).FindSubmatch(data)
	if len(matches) < 2 {
		return filepath.Base(filepath.Dir(goModPath))
	}
	return string(matches[1])
}

func extractJSPackageName(packageJSONPath string) string {
	data, err := os.ReadFile(packageJSONPath)
	if err != nil {
		return ""
	}
	matches := regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`).FindSubmatch(data)
	if len(matches) < 2 {
		return ""
	}
	return string(matches[1])
}

func extractGitProjectName(gitRoot string) string {
	configPath := filepath.Join(gitRoot, ".git", "config")
	file, err := os.Open(configPath)
	if err != nil {
		return filepath.Base(gitRoot)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	foundRemote := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, `[remote "origin"]`) {
			foundRemote = true
			continue
		}
		if foundRemote && strings.HasPrefix(line, "url = ") {
			url := strings.TrimSuffix(strings.TrimPrefix(line, "url = "), ".git")
			parts := strings.Split(url, "/")
			if len(parts) > 0 {
				return parts[len(parts)-1]
			}
		}
	}
	return filepath.Base(gitRoot)
}

func determineProjectType(marker string) string {
	switch marker {
	case "go.mod":
		return "go"
	case "package.json", "tsconfig.json":
		return "node"
	case ".git":
		return "git"
	default:
		return "unknown"
	}
}
