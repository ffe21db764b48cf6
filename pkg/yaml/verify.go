package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	yamlv3 "gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned by Verify for documents that do not parse.
var ErrInvalidDocument = errors.New("invalid yaml document")

// Verify parses every document in data and reports the first syntax error.
func Verify(data []byte) error {
	dec := yamlv3.NewDecoder(bytes.NewReader(data))
	for i := 1; ; i++ {
		var node yamlv3.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: document %d: %v", ErrInvalidDocument, i, err)
		}
	}
}
