package config

import (
	"os"
	"path/filepath"
)

// projectMarkers identify a project root.
var projectMarkers = []string{".git", ProjectConfigDir}

// defaultStorePaths apply when store.path is unset. They are relative to the
// project root; drivers without files have no entry.
var defaultStorePaths = map[string]string{
	"sqlite": filepath.Join(ProjectConfigDir, "phasegraph.db"),
	"badger": filepath.Join(ProjectConfigDir, "badger"),
}

// FindProjectRoot returns the nearest directory at or above dir that holds a
// .git or .phasegraph directory. Without a marker it returns dir itself, made
// absolute.
func FindProjectRoot(dir string) string {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		dir = wd
	}
	start, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}

	for d := start; ; {
		for _, marker := range projectMarkers {
			if fi, err := os.Stat(filepath.Join(d, marker)); err == nil && fi.IsDir() {
				return d
			}
		}
		parent := filepath.Dir(d)
		if parent == d {
			return start
		}
		d = parent
	}
}

// resolve records root and makes the store path and every file path under
// Paths absolute. Empty paths stay empty.
func (c *Config) resolve(root string) {
	c.ProjectRoot = root
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePaths[c.Store.Driver]
	}

	for _, p := range []*string{&c.Store.Path, &c.Paths.Log, &c.Paths.Socket, &c.Paths.PID} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
}
