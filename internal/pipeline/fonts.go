package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// copyFontsAction copies font files matching the configured patterns into
// dist/fonts, preserving only the base file name. Fonts need no
// processing; they are the one asset class loom handles itself.
func (p *Pipeline) copyFontsAction(ctx context.Context) error {
	dest := filepath.Join(p.cfg.Paths.Dist, "fonts")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create font directory: %w", err)
	}

	copied := 0
	for _, pattern := range p.cfg.Paths.Fonts {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, src := range matches {
			if err := ctx.Err(); err != nil {
				return err
			}
			if p.excluded(src) {
				continue
			}
			info, err := os.Stat(src)
			if err != nil {
				return err
			}
			if info.IsDir() {
				continue
			}
			if err := copyFile(src, filepath.Join(dest, filepath.Base(src))); err != nil {
				return err
			}
			copied++
		}
	}
	p.log.Info("copied fonts", "count", copied, "dest", dest)
	return nil
}

func (p *Pipeline) excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range p.cfg.Paths.Exclude {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
