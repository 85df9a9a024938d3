package labelme2yolo

// YOLO label file specific functionality.

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const yoloFileExt = ".txt"

// String formats r as a YOLO label line: the label ID followed by the coordinates, separated by
// single spaces.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(r.LabelID))
	for _, c := range r.Coords {
		b.WriteByte(' ')
		b.WriteString(formatCoord(c))
	}
	return b.String()
}

// formatCoord formats v in the shortest form that parses back to v. Fixed notation keeps at
// least one fractional digit ("0.0", "0.35") and is used for decimal exponents in [-4, 16);
// exponent notation ("5e-05") is used otherwise. Label files of existing corpora use this form.
func formatCoord(v float64) string {
	e := strconv.FormatFloat(v, 'e', -1, 64)
	i := strings.LastIndexByte(e, 'e')
	if i < 0 { // NaN or Inf.
		return e
	}
	if exp, err := strconv.Atoi(e[i+1:]); err == nil && (exp < -4 || exp >= 16) {
		return e
	}

	f := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(f, ".") {
		f += ".0"
	}
	return f
}

// yoloLabelPath is the output path in outDir for the annotation file at labelPath, with the
// file extension replaced by ".txt".
func yoloLabelPath(outDir, labelPath string) (string, error) {
	_, baseNoExt, _, err := splitPath(labelPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(outDir, baseNoExt+yoloFileExt), nil
}

// WriteYOLO writes records to path, one line per record and without a trailing newline. An
// existing file is overwritten.
func WriteYOLO(path string, records []Record) error {
	var buf bytes.Buffer
	for i, r := range records {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(r.String())
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
