package twine

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"resty.dev/v3"

	"github.com/wheelforge/wheelforge/internal/artifact"
	"github.com/wheelforge/wheelforge/internal/ctxlog"
)

// allVersionsPublished asks the index JSON API whether every artifact's
// version is already present. It errors on the first network or protocol
// problem; the caller treats that as "don't know" and uploads anyway.
func allVersionsPublished(ctx context.Context, indexAPI, pkg string, artifacts []string) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	versions, err := artifactVersions(artifacts)
	if err != nil {
		return false, err
	}

	client := resty.New()
	defer client.Close()

	for version := range versions {
		url := fmt.Sprintf("%s/%s/%s/json", strings.TrimRight(indexAPI, "/"), pkg, version)
		resp, err := client.R().SetContext(ctx).Get(url)
		if err != nil {
			return false, fmt.Errorf("querying index for %s %s: %w", pkg, version, err)
		}
		switch resp.StatusCode() {
		case http.StatusOK:
			logger.Debug("Version already on index.", "package", pkg, "version", version)
		case http.StatusNotFound:
			return false, nil
		default:
			return false, fmt.Errorf("index returned %d for %s %s", resp.StatusCode(), pkg, version)
		}
	}
	return true, nil
}

// artifactVersions extracts the set of distribution versions from wheel and
// sdist filenames.
func artifactVersions(artifacts []string) (map[string]struct{}, error) {
	versions := make(map[string]struct{})
	for _, path := range artifacts {
		name := filepath.Base(path)
		switch {
		case strings.HasSuffix(name, ".whl"):
			w, err := artifact.ParseWheelFilename(name)
			if err != nil {
				return nil, err
			}
			versions[w.Version] = struct{}{}
		case artifact.IsSdist(name):
			v, err := artifact.SdistVersion(name)
			if err != nil {
				return nil, err
			}
			versions[v] = struct{}{}
		default:
			return nil, fmt.Errorf("%s: not a recognized distribution artifact", name)
		}
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no versions found in artifact set")
	}
	return versions, nil
}
