package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/wheelforge/wheelforge/internal/config"
	"github.com/wheelforge/wheelforge/internal/ctxlog"
	"github.com/wheelforge/wheelforge/internal/fsutil"
	"github.com/wheelforge/wheelforge/internal/schema"
)

// Loader loads pipeline definitions from .hcl files.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load implements config.Loader. All .hcl files found under the given paths
// are parsed and merged into a single model: at most one pipeline block over
// the whole set, secrets and jobs accumulated across files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var filePaths []string
	for _, p := range paths {
		found, err := fsutil.FindFilesByExtension(p, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("searching for pipeline files in %s: %w", p, err)
		}
		filePaths = append(filePaths, found...)
	}
	if len(filePaths) == 0 {
		return nil, fmt.Errorf("no .hcl pipeline files found in %v", paths)
	}
	logger.Debug("Found pipeline files to load.", "files", filePaths)

	parser := hclparse.NewParser()
	model := &config.Model{}

	for _, filePath := range filePaths {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", filePath, diags)
		}

		var fileCfg schema.PipelineConfig
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &fileCfg); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", filePath, diags)
		}

		if err := l.mergeFile(model, &fileCfg, filePath); err != nil {
			return nil, err
		}
		logger.Debug("Loaded pipeline file.", "file", filePath)
	}

	if model.Pipeline == nil {
		return nil, fmt.Errorf("no pipeline block found in %v", paths)
	}
	if len(model.Jobs) == 0 {
		return nil, fmt.Errorf("pipeline '%s' defines no jobs", model.Pipeline.Name)
	}

	logger.Debug("Pipeline configuration loaded.",
		"pipeline", model.Pipeline.Name, "jobs", len(model.Jobs), "secrets", len(model.Secrets))
	return model, nil
}

// mergeFile translates one parsed file into the model, rejecting duplicates.
func (l *Loader) mergeFile(model *config.Model, fileCfg *schema.PipelineConfig, filePath string) error {
	if fileCfg.Pipeline != nil {
		if model.Pipeline != nil {
			return fmt.Errorf("%s: duplicate pipeline block (already defined as '%s')", filePath, model.Pipeline.Name)
		}
		model.Pipeline = &config.Pipeline{
			Name:    fileCfg.Pipeline.Name,
			Package: fileCfg.Pipeline.Package,
		}
	}

	for _, s := range fileCfg.Secrets {
		for _, existing := range model.Secrets {
			if existing.Name == s.Name {
				return fmt.Errorf("%s: duplicate secret '%s'", filePath, s.Name)
			}
		}
		model.Secrets = append(model.Secrets, &config.Secret{Name: s.Name, Env: s.Env})
	}

	for _, j := range fileCfg.Jobs {
		if model.FindJob(j.Name) != nil {
			return fmt.Errorf("%s: duplicate job '%s'", filePath, j.Name)
		}
		job, err := l.translateJob(j)
		if err != nil {
			return fmt.Errorf("%s: job '%s': %w", filePath, j.Name, err)
		}
		model.Jobs = append(model.Jobs, job)
	}

	return nil
}
