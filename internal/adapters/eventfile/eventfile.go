// Package eventfile decodes simplified event samples: blocks of particle
// records carrying zero-width efficiencies, optionally packed in a
// gzip-compressed tar archive.
package eventfile

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/llpbakery/effmap/internal/domain/model"
)

const (
	blockOpen    = "<event>"
	blockClose   = "</event>"
	headerLines  = 2
	fixedFields  = 6
	errorMarker  = "+-"
	archiveExt   = ".tar.gz"
	maxLineBytes = 1024 * 1024
)

// DefaultLabels is the column order of the reference analysis: the trigger
// then one region per pair, each followed by its error.
var DefaultLabels = []string{
	"trigger", "trigger_err",
	"c000", "c000_err",
	"c100", "c100_err",
	"c200", "c200_err",
	"c300", "c300_err",
}

// Read decodes every event in the sample at path. Archives ending in
// .tar.gz are read in place.
func Read(path string, labels []string) ([]model.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, archiveExt) {
		member, err := openMember(f, strings.TrimSuffix(filepath.Base(path), archiveExt))
		if err != nil {
			return nil, fmt.Errorf("open archive %s: %w", path, err)
		}
		r = member
	}

	events, err := Decode(r, labels)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return events, nil
}

// openMember positions a tar reader on the member called name, falling
// back to the first regular file of the archive.
func openMember(r io.Reader, name string) (io.Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}

	// The fallback needs a second pass over the archive.
	tr := tar.NewReader(gz)
	first := ""
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if filepath.Base(hdr.Name) == name {
			return tr, nil
		}
		if first == "" {
			first = hdr.Name
		}
	}
	if first == "" {
		return nil, ErrEmptyArchive
	}

	seeker, ok := r.(io.Seeker)
	if !ok {
		return nil, fmt.Errorf("member %q not found", name)
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := gz.Reset(r); err != nil {
		return nil, err
	}
	tr = tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err != nil {
			return nil, err
		}
		if hdr.Name == first {
			return tr, nil
		}
	}
}

// Decode reads event blocks from r. Each particle line holds
// pdg px py pz E m followed by one value per label.
func Decode(r io.Reader, labels []string) ([]model.Event, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		events  []model.Event
		current model.Event
		inBlock bool
		skipped int
		line    int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		switch {
		case strings.HasPrefix(text, blockOpen):
			if inBlock {
				return nil, fmt.Errorf("line %d: %w", line, ErrUnterminated)
			}
			inBlock, current, skipped = true, model.Event{}, 0
		case strings.HasPrefix(text, blockClose):
			if inBlock {
				events = append(events, current)
				inBlock = false
			}
		case !inBlock:
			// text between blocks
		case skipped < headerLines:
			skipped++
		default:
			p, err := parseParticle(text, labels)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			current = append(current, p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if inBlock {
		return nil, fmt.Errorf("event %d: %w", len(events)+1, ErrUnterminated)
	}
	return events, nil
}

func parseParticle(text string, labels []string) (model.Particle, error) {
	fields := strings.Fields(strings.ReplaceAll(text, errorMarker, " "))
	if len(fields) < fixedFields+len(labels) {
		return model.Particle{}, fmt.Errorf("%w: %d fields, want %d", ErrMalformedRecord, len(fields), fixedFields+len(labels))
	}

	values := make([]float64, fixedFields+len(labels))
	for i := range values {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return model.Particle{}, fmt.Errorf("%w: field %d: %q", ErrMalformedRecord, i+1, fields[i])
		}
		values[i] = v
	}

	effs := make(map[string]float64, len(labels))
	for i, label := range labels {
		effs[label] = values[fixedFields+i]
	}
	return model.NewParticle(int(values[0]), values[1], values[2], values[3], values[4], values[5], effs), nil
}
