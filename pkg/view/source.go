package view

import (
	"context"
	"fmt"
	"io/fs"
	"os"
)

// Source fetches raw view files by name.
type Source interface {
	Open(ctx context.Context, name string) ([]byte, error)
}

// FSSource reads views from an fs.FS, such as an embed.FS.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a Source over fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// NewDirSource creates a Source reading from a directory on disk.
func NewDirSource(dir string) *FSSource {
	return &FSSource{fsys: os.DirFS(dir)}
}

// Open implements Source.
func (s *FSSource) Open(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read view %s: %w", name, err)
	}
	return data, nil
}

// TemplateLoader returns a LoadFunc that fetches file from src and parses it
// as a Template.
func TemplateLoader(src Source, file string) LoadFunc {
	return func(ctx context.Context) (Component, error) {
		data, err := src.Open(ctx, file)
		if err != nil {
			return nil, err
		}
		return NewTemplate(file, data)
	}
}
