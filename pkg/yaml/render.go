// Package yaml renders decrypted vault values back into YAML.
package yaml

import "strings"

// Render returns the lines that replace a vault block.
//
// An empty value becomes an empty quoted scalar and a single line is written
// inline after preText. Anything longer becomes a literal block indented two
// spaces past baseIndent.
func Render(preText string, baseIndent int, lines []string) []string {
	switch len(lines) {
	case 0:
		return []string{preText + " ''"}
	case 1:
		return []string{preText + " " + lines[0]}
	}

	indent := strings.Repeat(" ", baseIndent+2)
	out := make([]string, 0, len(lines)+1)
	out = append(out, preText+" |")
	for _, line := range lines {
		out = append(out, indent+line)
	}
	return out
}
