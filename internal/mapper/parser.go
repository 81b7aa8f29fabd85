package mapper

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/vireolabs/machinevision/internal/errors"
)

// Entry is one parsed mapping line: a provider concept identifier and
// the canonical identifier it maps to.
type Entry struct {
	ProviderConceptID string
	CanonicalID       string
}

// ParseTSV reads tab-separated mapping lines of the form
//
//	<provider-concept-id>\t<canonical-id-or-entity-uri>
//
// Canonical IDs given as full entity URIs are reduced to their final
// path segment. Blank lines and lines starting with '#' are skipped.
// Malformed lines abort the parse so a truncated file never half-loads.
func ParseTSV(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, errors.Newf("malformed mapping line %d: expected at least 2 tab-separated fields", lineNo).
				Category(errors.CategoryFileParsing).
				Context("line", lineNo).
				Build()
		}

		providerID := strings.TrimSpace(fields[0])
		canonicalID := canonicalFromField(fields[1])
		if providerID == "" || canonicalID == "" {
			return nil, errors.Newf("malformed mapping line %d: empty identifier", lineNo).
				Category(errors.CategoryFileParsing).
				Context("line", lineNo).
				Build()
		}

		entries = append(entries, Entry{
			ProviderConceptID: providerID,
			CanonicalID:       canonicalID,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("operation", "mapping_scan").
			Build()
	}
	return entries, nil
}

// ParseFile parses a mapping TSV from disk.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("operation", "mapping_open").
			Context("path", path).
			Build()
	}
	defer f.Close()
	return ParseTSV(f)
}

func canonicalFromField(field string) string {
	field = strings.TrimSpace(field)
	if idx := strings.LastIndex(field, "/"); idx >= 0 {
		field = field[idx+1:]
	}
	return field
}
