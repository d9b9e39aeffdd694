// Package artifact models the build artifacts the pipeline produces: wheels
// and source distributions. Wheel filenames follow the binary distribution
// format (PEP 427); the platform tags are what the auditwheel repair step is
// verified against.
package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Wheel is a parsed wheel filename.
type Wheel struct {
	// Path is the full path the wheel was found at (may be just a filename).
	Path string
	// Distribution is the escaped distribution name.
	Distribution string
	// Version is the distribution version.
	Version string
	// Build is the optional build tag, empty when absent.
	Build string
	// PythonTags, AbiTags, and PlatformTags are the expanded (dot-split)
	// compatibility tag sets.
	PythonTags   []string
	AbiTags      []string
	PlatformTags []string
}

// ParseWheelFilename parses a wheel path of the form
// {distribution}-{version}(-{build})?-{python}-{abi}-{platform}.whl.
func ParseWheelFilename(path string) (*Wheel, error) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".whl") {
		return nil, fmt.Errorf("%s: not a wheel filename", name)
	}
	stem := strings.TrimSuffix(name, ".whl")

	parts := strings.Split(stem, "-")
	if len(parts) != 5 && len(parts) != 6 {
		return nil, fmt.Errorf("%s: expected 5 or 6 dash-separated fields, got %d", name, len(parts))
	}

	w := &Wheel{
		Path:         path,
		Distribution: parts[0],
		Version:      parts[1],
	}
	rest := parts[2:]
	if len(parts) == 6 {
		w.Build = parts[2]
		rest = parts[3:]
	}
	for _, field := range rest {
		if field == "" {
			return nil, fmt.Errorf("%s: empty tag field", name)
		}
	}
	w.PythonTags = strings.Split(rest[0], ".")
	w.AbiTags = strings.Split(rest[1], ".")
	w.PlatformTags = strings.Split(rest[2], ".")
	return w, nil
}

// HasPlatformTag reports whether the wheel carries the given platform tag.
func (w *Wheel) HasPlatformTag(tag string) bool {
	for _, t := range w.PlatformTags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsPure reports whether the wheel is platform-independent.
func (w *Wheel) IsPure() bool {
	return len(w.PlatformTags) == 1 && w.PlatformTags[0] == "any"
}

// Filename returns the base filename of the wheel.
func (w *Wheel) Filename() string {
	return filepath.Base(w.Path)
}

// IsSdist reports whether a path names a source distribution archive.
func IsSdist(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".zip")
}

// SdistVersion extracts the version from an sdist filename of the form
// {distribution}-{version}.tar.gz (or .zip).
func SdistVersion(path string) (string, error) {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(strings.TrimSuffix(name, ".tar.gz"), ".zip")
	idx := strings.LastIndex(stem, "-")
	if idx <= 0 || idx == len(stem)-1 {
		return "", fmt.Errorf("%s: cannot extract version from sdist filename", name)
	}
	return stem[idx+1:], nil
}
