package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// docsAction serializes the docs settings to a YAML file and hands its
// path to the documentation generator. The file lands inside dist so a
// clean sweeps it away with the rest of the build output.
func (p *Pipeline) docsAction(ctx context.Context) error {
	path, err := p.writeDocsConfig()
	if err != nil {
		return err
	}
	p.log.Debug("wrote docs generator config", "path", path)

	t := p.cfg.Tools.DocGenerator
	args := make([]string, 0, len(t.Args)+2)
	args = append(args, t.Args...)
	args = append(args, "--config", path)
	return p.sup.Command(ctx, t.Command, args...)
}

func (p *Pipeline) writeDocsConfig() (string, error) {
	data, err := yaml.Marshal(p.cfg.Docs)
	if err != nil {
		return "", fmt.Errorf("marshal docs config: %w", err)
	}

	dir := p.cfg.Paths.Dist
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dist directory: %w", err)
	}

	path := filepath.Join(dir, ".docs-config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write docs config: %w", err)
	}
	return path, nil
}
