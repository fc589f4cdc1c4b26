package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/llpbakery/effmap/internal/domain/grid"
)

const (
	headerFieldWidth = 19
	headerTrim       = 3
	valuePrefix      = "     "
)

// Header renders the column names the way Write puts them after "# ".
func Header(columns []string) string {
	var b strings.Builder
	for _, c := range columns {
		fmt.Fprintf(&b, "%*s", headerFieldWidth, c)
	}
	h := b.String()
	if len(h) < headerTrim {
		return ""
	}
	return h[headerTrim:]
}

// Write encodes g to w.
func Write(w io.Writer, g *grid.Grid) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("# " + Header(g.Columns) + "\n"); err != nil {
		return err
	}
	for i, row := range g.Rows {
		if len(row) != len(g.Columns) {
			return fmt.Errorf("row %d: %w", i, grid.ErrRowWidth)
		}
		for j, v := range row {
			if j > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(valuePrefix + strconv.FormatFloat(v, 'e', 7, 64)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes g to path through a temporary file in the same
// directory, so a failed write never leaves a partial table behind.
func WriteFile(path string, g *grid.Grid) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = Write(tmp, g); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read decodes a table. Column names come from the first comment line;
// later comment lines and blank lines are ignored.
func Read(r io.Reader) (*grid.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var g *grid.Grid
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if g == nil {
				g = grid.New(strings.Fields(strings.TrimPrefix(text, "#"))...)
			}
			continue
		}
		if g == nil {
			return nil, fmt.Errorf("line %d: %w", line, ErrNoHeader)
		}

		fields := strings.Fields(text)
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w: %q", line, i+1, ErrBadValue, f)
			}
			row[i] = v
		}
		if err := g.Append(row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoHeader
	}
	return g, nil
}

// ReadFile decodes the table stored at path.
func ReadFile(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return g, nil
}
