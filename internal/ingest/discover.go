// Package ingest discovers NFS-e XML byte streams and normalizes them into a
// record set, one ingest run at a time.
package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source is one discovered XML document: an opaque identifier that points
// back at the originating file (or zip entry) and its raw bytes.
type Source struct {
	Name string
	Data []byte
}

// Discover collects every XML document reachable from path in a stable,
// case-insensitive order. Accepted inputs:
//   - a single .xml file
//   - a .zip archive (its .xml entries, named "archive.zip:entry")
//   - a directory, searched recursively for loose .xml files and for .zip
//     archives, in that order
func Discover(path string) ([]Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}

	switch {
	case info.IsDir():
		return discoverDir(path)
	case hasSuffix(path, ".zip"):
		return discoverZip(path)
	case hasSuffix(path, ".xml"):
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return []Source{{Name: path, Data: data}}, nil
	default:
		return nil, fmt.Errorf("unsupported input %s: expected a directory, .zip or .xml", path)
	}
}

// List returns the names Discover would produce, without loading content.
func List(path string) ([]string, error) {
	sources, err := Discover(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	return names, nil
}

func discoverDir(dir string) ([]Source, error) {
	var xmlPaths, zipPaths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case hasSuffix(p, ".xml"):
			xmlPaths = append(xmlPaths, p)
		case hasSuffix(p, ".zip"):
			zipPaths = append(zipPaths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	sortCaseInsensitive(xmlPaths)
	sortCaseInsensitive(zipPaths)

	var sources []Source
	for _, p := range xmlPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		sources = append(sources, Source{Name: p, Data: data})
	}
	for _, zp := range zipPaths {
		zipSources, err := discoverZip(zp)
		if err != nil {
			return nil, err
		}
		sources = append(sources, zipSources...)
	}
	return sources, nil
}

func discoverZip(path string) ([]Source, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}
	defer func() { _ = zr.Close() }()

	entries := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !hasSuffix(f.Name, ".xml") {
			continue
		}
		entries = append(entries, f)
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	base := filepath.Base(path)
	sources := make([]Source, 0, len(entries))
	for _, f := range entries {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s:%s: %w", base, f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read zip entry %s:%s: %w", base, f.Name, err)
		}
		sources = append(sources, Source{Name: base + ":" + f.Name, Data: data})
	}
	return sources, nil
}

func hasSuffix(name, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(name), suffix)
}

func sortCaseInsensitive(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		return strings.ToLower(paths[i]) < strings.ToLower(paths[j])
	})
}
