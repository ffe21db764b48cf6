// Package fileutils reads the documents unvault operates on.
package fileutils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ErrInputUnreadable is returned when the input document cannot be read.
var ErrInputUnreadable = errors.New("input unreadable")

// Document is a text document split into lines.
//
// Lines are split on "\n" only, so a "\r" before the newline stays part of the
// line and the document is reproduced byte for byte by Bytes.
type Document struct {
	Lines        []string
	FinalNewline bool
}

// SplitLines splits data into a Document.
func SplitLines(data []byte) Document {
	if len(data) == 0 {
		return Document{}
	}
	text := string(data)
	doc := Document{FinalNewline: strings.HasSuffix(text, "\n")}
	if doc.FinalNewline {
		text = text[:len(text)-1]
	}
	doc.Lines = strings.Split(text, "\n")
	return doc
}

// Bytes joins the document back together.
func (d Document) Bytes() []byte {
	if len(d.Lines) == 0 {
		if d.FinalNewline {
			return []byte("\n")
		}
		return nil
	}
	var b strings.Builder
	for i, line := range d.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if d.FinalNewline {
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// ReadDocument reads the file at path, or stdin when path is empty or "-".
func ReadDocument(path string, stdin io.Reader) (Document, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return Document{}, fmt.Errorf("%w: stdin: %v", ErrInputUnreadable, err)
		}
		return SplitLines(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrInputUnreadable, path, unwrapPath(err))
	}
	return SplitLines(data), nil
}

// ReadDocumentFS reads name from fsys.
func ReadDocumentFS(fsys fs.FS, name string) (Document, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrInputUnreadable, name, unwrapPath(err))
	}
	return SplitLines(data), nil
}

// unwrapPath drops the path from a *fs.PathError, which is already in the message.
func unwrapPath(err error) error {
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return perr.Err
	}
	return err
}
