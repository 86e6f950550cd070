// Package csvrecord turns uploaded CSV text into header-keyed records.
package csvrecord

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Record is one data row keyed by trimmed, lowercased header names.
type Record struct {
	Line   int
	Width  int
	Fields map[string]string
}

// Get returns the first non-empty value among the given header names.
func (r Record) Get(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(r.Fields[strings.ToLower(n)]); v != "" {
			return v
		}
	}
	return ""
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(b []byte) []byte {
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(b)
	if err != nil {
		return bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	}
	return out
}

// AddBOM prefixes text with a UTF-8 BOM so spreadsheet tools pick the right encoding.
func AddBOM(b []byte) []byte {
	out, err := unicode.UTF8BOM.NewEncoder().Bytes(b)
	if err != nil {
		return append([]byte("\xef\xbb\xbf"), b...)
	}
	return out
}

// SplitLines tokenizes text into logical lines of fields.
// An unterminated quote runs to end of input.
func SplitLines(text string) [][]string {
	var (
		lines  [][]string
		fields []string
		field  strings.Builder
		quoted bool
		dirty  bool
	)
	endField := func() {
		fields = append(fields, field.String())
		field.Reset()
	}
	endLine := func() {
		endField()
		lines = append(lines, fields)
		fields = nil
		dirty = false
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quoted {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				quoted = false
				continue
			}
			field.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			quoted = true
			dirty = true
		case ',':
			endField()
			dirty = true
		case '\r':
		case '\n':
			endLine()
		default:
			field.WriteByte(c)
			dirty = true
		}
	}
	if dirty || field.Len() > 0 || len(fields) > 0 {
		endLine()
	}
	return lines
}

func blank(fields []string) bool {
	return len(fields) == 1 && strings.TrimSpace(fields[0]) == ""
}

// Parse reads CSV text: the first non-blank line is the header, the rest are data.
// Header-only or empty input yields nil.
func Parse(text string) []Record {
	text = string(StripBOM([]byte(text)))
	var lines [][]string
	for _, l := range SplitLines(text) {
		if !blank(l) {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return nil
	}
	header := make([]string, len(lines[0]))
	for i, h := range lines[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	records := make([]Record, 0, len(lines)-1)
	for n, l := range lines[1:] {
		rec := Record{Line: n + 2, Width: len(l), Fields: make(map[string]string, len(header))}
		for i, v := range l {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if _, seen := rec.Fields[header[i]]; seen && strings.TrimSpace(v) == "" {
				continue
			}
			rec.Fields[header[i]] = v
		}
		records = append(records, rec)
	}
	return records
}

// FormatRow serializes one line, quoting fields that need it.
func FormatRow(fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		if strings.ContainsAny(f, ",\"\n\r") {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
			b.WriteByte('"')
			continue
		}
		b.WriteString(f)
	}
	return b.String()
}

// Format serializes a header and rows back to CSV text.
func Format(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(FormatRow(header))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(FormatRow(r))
		b.WriteByte('\n')
	}
	return b.String()
}
