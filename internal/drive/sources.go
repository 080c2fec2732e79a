package drive

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockpilot/internal/pipeline"
)

// FolderSources lists the importable files of a folder as importer
// sources. Native Google Sheets are included and exported as XLSX.
func (s *Service) FolderSources(ctx context.Context, folderID string) ([]pipeline.Source, error) {
	files, err := s.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var sources []pipeline.Source
	for _, f := range files {
		name := f.Name
		switch {
		case f.IsSpreadsheet():
			name += ".xlsx"
		case !importable(f.Name):
			continue
		}

		file := f
		sources = append(sources, pipeline.Source{
			Name: name,
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				return s.Open(ctx, file)
			},
		})
	}
	return sources, nil
}

// SelectSources narrows sources to the given file names, keeping order.
// An empty selection keeps everything.
func SelectSources(sources []pipeline.Source, names []string) []pipeline.Source {
	if len(names) == 0 {
		return sources
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []pipeline.Source
	for _, src := range sources {
		if want[src.Name] || want[strings.TrimSuffix(src.Name, ".xlsx")] {
			out = append(out, src)
		}
	}
	return out
}

func importable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}
