package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanWheels returns the parsed wheels found directly inside dir, sorted by
// filename. A missing directory yields an empty result, since a build step
// that produced nothing is reported by its own exit code.
func ScanWheels(dir string) ([]*Wheel, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var wheels []*Wheel
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".whl") {
			continue
		}
		w, err := ParseWheelFilename(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		wheels = append(wheels, w)
	}
	sort.Slice(wheels, func(i, k int) bool { return wheels[i].Path < wheels[k].Path })
	return wheels, nil
}

// ScanDist returns all distribution artifacts (wheels and sdists) directly
// inside dir, sorted.
func ScanDist(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".whl") || IsSdist(name) {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
