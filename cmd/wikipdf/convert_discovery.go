package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-wikipdf"
	"github.com/alnah/go-wikipdf/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .html or .htm extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrOutputIsFile       = errors.New("output must be a directory when converting a directory")
	ErrOutputCollision    = errors.New("several inputs map to the same output")
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
	DiagramDir string // empty = library default next to the PDF
}

// discoverFiles finds all HTML files to convert.
func discoverFiles(inputPath, output string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !fileutil.IsHTMLFile(inputPath) {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
		}
		outPath := resolveOutputPath(inputPath, output, "")
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	if isPDFPath(output) {
		return nil, fmt.Errorf("%w: %s", ErrOutputIsFile, output)
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !fileutil.IsHTMLFile(path) {
			return nil
		}
		outPath := resolveOutputPath(path, output, inputPath)
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the PDF output path for an HTML file.
// An empty output writes next to the input; a .pdf output is used as is;
// otherwise output is a directory mirroring the input tree.
func resolveOutputPath(inputPath, output, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if output == "" {
		return filepath.Join(filepath.Dir(inputPath), base+".pdf")
	}

	if isPDFPath(output) {
		return output
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			relDir := filepath.Dir(relPath)
			return filepath.Join(output, relDir, base+".pdf")
		}
	}

	return filepath.Join(output, base+".pdf")
}

// isPDFPath reports whether path names a PDF file rather than a directory.
func isPDFPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// assignDiagramDirs gives each file its own diagram subdirectory when several
// PDFs land in the same directory, so one run cannot clear another's images.
// Fails when two inputs would write the same PDF (page.html and page.htm).
func assignDiagramDirs(files []FileToConvert) error {
	perDir := make(map[string]int, len(files))
	seen := make(map[string]string, len(files))

	for _, f := range files {
		if prev, ok := seen[f.OutputPath]; ok {
			return fmt.Errorf("%w: %s and %s both write %s", ErrOutputCollision, prev, f.InputPath, f.OutputPath)
		}
		seen[f.OutputPath] = f.InputPath
		perDir[filepath.Dir(f.OutputPath)]++
	}

	for i := range files {
		dir := filepath.Dir(files[i].OutputPath)
		if perDir[dir] < 2 {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(files[i].OutputPath), filepath.Ext(files[i].OutputPath))
		files[i].DiagramDir = filepath.Join(dir, wikipdf.DiagramDirName, stem)
	}

	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > wikipdf.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, wikipdf.MaxPoolSize)
	}
	return nil
}

