package charts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/sync/errgroup"

	"github.com/yildizm/ocuprofile/internal/report"
)

// Files lists the paths written by WriteAll
type Files struct {
	Distribution string
	Radar        string
	HTML         string
}

// All returns the written paths in a stable order
func (f Files) All() []string {
	return []string{f.Distribution, f.Radar, f.HTML}
}

// WriteAll renders every chart of rep into dir. File names are derived from
// the report source.
func WriteAll(ctx context.Context, dir string, rep *report.Report, o Options) (Files, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Files{}, fmt.Errorf("failed to create chart directory: %w", err)
	}

	base := Slug(strings.TrimSuffix(filepath.Base(rep.Source), filepath.Ext(rep.Source)))
	files := Files{
		Distribution: filepath.Join(dir, base+"-distribuicao.png"),
		Radar:        filepath.Join(dir, base+"-radar.png"),
		HTML:         filepath.Join(dir, base+"-graficos.html"),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeRendered(ctx, files.Distribution, func() ([]byte, error) { return DistributionPNG(rep, o) })
	})
	g.Go(func() error {
		return writeRendered(ctx, files.Radar, func() ([]byte, error) { return RadarPNG(rep, o) })
	})
	g.Go(func() error {
		return writeRendered(ctx, files.HTML, func() ([]byte, error) {
			var buf bytes.Buffer
			if err := WriteHTML(&buf, rep, o); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		})
	})

	if err := g.Wait(); err != nil {
		return Files{}, err
	}
	return files, nil
}

func writeRendered(ctx context.Context, path string, render func() ([]byte, error)) error {
	data, err := render()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Slug turns a file name into an ASCII token safe for output paths
func Slug(name string) string {
	ascii := strings.ToLower(unidecode.Unidecode(name))

	var b strings.Builder
	dash := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "analise"
	}
	return slug
}
