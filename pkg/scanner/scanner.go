// Package scanner splits a YAML document into passthrough lines and
// `!vault |` blocks.
//
// A block starts at a header line such as the second line of
//
//	db:
//	  password: !vault |
//
// and extends over every following line indented deeper than the header.
// Indentation is measured in characters, so a document is expected to indent
// with spaces only. WithStrictIndentation rejects blocks whose indentation
// mixes tabs and spaces instead of guessing at their columns.
package scanner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMixedIndentation is returned in strict mode when a block mixes tabs and
// spaces in its indentation.
var ErrMixedIndentation = errors.New("mixed tab and space indentation in vault block")

var headerPattern = regexp.MustCompile(`^((\s*)-?\s*.*?:?)\s*!vault\s*\|[-+]?\s*(?:#.*)?$`)

// Block is one encrypted value found in the document.
type Block struct {
	// PreText is the header line up to the !vault tag, e.g. "  - password:".
	PreText string
	// BaseIndent is the number of leading whitespace characters on the header.
	BaseIndent int
	// Ciphertext holds the body lines with indentation removed, each ending in "\n".
	Ciphertext string
	// Line is the 1-based line number of the header.
	Line int
	// CRLF reports whether the header line ended in "\r\n".
	CRLF bool
}

// Item is either a passthrough line or a block.
type Item struct {
	Line  string
	Block *Block
}

// IsBlock reports whether the item is a vault block.
func (i Item) IsBlock() bool {
	return i.Block != nil
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithStrictIndentation makes the scanner fail on blocks with mixed indentation.
func WithStrictIndentation() Option {
	return func(s *Scanner) {
		s.strict = true
	}
}

// Scanner walks the lines of a document once, front to back.
type Scanner struct {
	lines  []string
	pos    int
	item   Item
	err    error
	strict bool
}

// New returns a Scanner over lines.
func New(lines []string, opts ...Option) *Scanner {
	s := &Scanner{lines: lines}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan advances to the next item. It returns false at the end of the
// document or on error.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= len(s.lines) {
		return false
	}

	line := s.lines[s.pos]
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		s.item = Item{Line: line}
		s.pos++
		return true
	}

	block := &Block{
		PreText:    strings.TrimRight(m[1], " \t\r\n"),
		BaseIndent: len(m[2]),
		Line:       s.pos + 1,
		CRLF:       strings.HasSuffix(line, "\r"),
	}
	if s.strict && mixed(m[2]) {
		s.err = fmt.Errorf("line %d: %w", block.Line, ErrMixedIndentation)
		return false
	}
	s.pos++

	var body strings.Builder
	for s.pos < len(s.lines) {
		next := s.lines[s.pos]
		if isBlank(next) {
			if !s.continuesBlock(block.BaseIndent) {
				break
			}
			body.WriteString("\n")
			s.pos++
			continue
		}
		ws := leadingWhitespace(next)
		if len(ws) <= block.BaseIndent {
			break
		}
		if s.strict && (mixed(ws) || ws[:block.BaseIndent] != m[2]) {
			s.err = fmt.Errorf("line %d: %w", s.pos+1, ErrMixedIndentation)
			return false
		}
		body.WriteString(strings.TrimLeft(next[block.BaseIndent:], " \t"))
		body.WriteString("\n")
		s.pos++
	}
	block.Ciphertext = body.String()

	s.item = Item{Block: block}
	return true
}

// Item returns the item produced by the last call to Scan.
func (s *Scanner) Item() Item {
	return s.item
}

// Err returns the error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

// continuesBlock reports whether, after the run of blank lines at the current
// position, the document returns to an indentation deeper than base.
func (s *Scanner) continuesBlock(base int) bool {
	for i := s.pos; i < len(s.lines); i++ {
		if isBlank(s.lines[i]) {
			continue
		}
		return len(leadingWhitespace(s.lines[i])) > base
	}
	return false
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func mixed(ws string) bool {
	return strings.Contains(ws, " ") && strings.Contains(ws, "\t")
}
