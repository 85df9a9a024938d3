package labelme2yolo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// filesByExtInDir returns all regular files with file extension ext found directly in directory
// dirPath, sorted by file name. All files are returned if extension is empty.
func filesByExtInDir(dirPath, ext string) ([]string, error) {
	dirInfo, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %q: %w", dirPath, err)
	}
	if !dirInfo.IsDir() {
		return nil, fmt.Errorf("cannot read directory %q: not a directory", dirPath)
	}

	// os.ReadDir returns the entries sorted by file name, which fixes the traversal order.
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access %q: %w", dirPath, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		// Must be a regular file or a symlink and have the requested extension/suffix.
		if (!e.Type().IsRegular() && e.Type()&os.ModeSymlink == 0) || !strings.HasSuffix(name, ext) {
			continue
		}
		files = append(files, filepath.Join(dirPath, name))
	}

	return files, nil
}

// splitPath splits the given file path into the dir name, the base name without extension and the
// extension (without the dot).
func splitPath(path string) (dir, baseNoExt, ext string, err error) {
	dir, file := filepath.Split(path)
	ext = filepath.Ext(file)
	if ext == "" {
		return "", "", "", fmt.Errorf("missing file extension in %q", path)
	}

	dir = strings.TrimSuffix(dir, string(os.PathSeparator))
	baseNoExt = file[0 : len(file)-len(ext)]
	ext = ext[1:]

	return dir, baseNoExt, ext, nil
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
