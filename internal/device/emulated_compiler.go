package device

import (
	"fmt"
	"regexp"
	"strings"
)

// kernelDecl is a kernel entry point discovered in program source.
type kernelDecl struct {
	name   string
	params []string
	line   int
}

var kernelDeclPattern = regexp.MustCompile(`(?:\b__kernel|\bkernel)\s+void\s+([A-Za-z_]\w*)\s*\(([^)]*)\)`)

// compileSource performs the front-end checks the emulated device can do
// without a real OpenCL C compiler: comments, delimiter balance and kernel
// signatures. It returns the declared kernels and a build log. A non-empty
// diagnostics slice means the build failed.
func compileSource(source string) ([]kernelDecl, []string) {
	stripped, diags := stripComments(source)
	diags = append(diags, checkDelimiters(stripped)...)
	if len(diags) > 0 {
		return nil, diags
	}

	var decls []kernelDecl
	seen := make(map[string]int)
	for _, m := range kernelDeclPattern.FindAllStringSubmatchIndex(stripped, -1) {
		name := stripped[m[2]:m[3]]
		line := 1 + strings.Count(stripped[:m[0]], "\n")
		if prev, ok := seen[name]; ok {
			diags = append(diags, fmt.Sprintf("<source>:%d:1: error: redefinition of kernel '%s' (previous definition on line %d)", line, name, prev))
			continue
		}
		seen[name] = line
		decls = append(decls, kernelDecl{
			name:   name,
			params: splitParams(stripped[m[4]:m[5]]),
			line:   line,
		})
	}
	if len(diags) > 0 {
		return nil, diags
	}
	return decls, nil
}

func splitParams(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" || list == "void" {
		return nil
	}
	parts := strings.Split(list, ",")
	for i := range parts {
		parts[i] = strings.Join(strings.Fields(parts[i]), " ")
	}
	return parts
}

// stripComments blanks out comments and string literals while keeping line
// and column positions intact.
func stripComments(src string) (string, []string) {
	out := []byte(src)
	var diags []string
	line, col := 1, 1

	advance := func(i int) {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	blank := func(i int) {
		if out[i] != '\n' {
			out[i] = ' '
		}
	}

	for i := 0; i < len(src); {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				blank(i)
				advance(i)
				i++
			}
		case strings.HasPrefix(src[i:], "/*"):
			startLine, startCol := line, col
			end := strings.Index(src[i+2:], "*/")
			stop := len(src)
			if end >= 0 {
				stop = i + 2 + end + 2
			} else {
				diags = append(diags, fmt.Sprintf("<source>:%d:%d: error: unterminated /* comment", startLine, startCol))
			}
			for ; i < stop; i++ {
				blank(i)
				advance(i)
			}
		case src[i] == '"' || src[i] == '\'':
			quote := src[i]
			startLine, startCol := line, col
			advance(i)
			i++
			closed := false
			for i < len(src) && src[i] != '\n' {
				c := src[i]
				blank(i)
				advance(i)
				i++
				if c == '\\' && i < len(src) {
					blank(i)
					advance(i)
					i++
					continue
				}
				if c == quote {
					closed = true
					break
				}
			}
			if !closed {
				diags = append(diags, fmt.Sprintf("<source>:%d:%d: error: missing terminating %c character", startLine, startCol, quote))
			}
		default:
			advance(i)
			i++
		}
	}
	return string(out), diags
}

type openDelim struct {
	char      byte
	line, col int
}

var closerFor = map[byte]byte{'(': ')', '[': ']', '{': '}'}

func checkDelimiters(src string) []string {
	var stack []openDelim
	var diags []string
	line, col := 1, 1
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '(', '[', '{':
			stack = append(stack, openDelim{char: c, line: line, col: col})
		case ')', ']', '}':
			if len(stack) == 0 {
				diags = append(diags, fmt.Sprintf("<source>:%d:%d: error: extraneous closing '%c'", line, col, c))
				break
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if closerFor[top.char] != c {
				diags = append(diags, fmt.Sprintf("<source>:%d:%d: error: expected '%c' to match '%c' at %d:%d",
					line, col, closerFor[top.char], top.char, top.line, top.col))
			}
		}
		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	for _, open := range stack {
		diags = append(diags, fmt.Sprintf("<source>:%d:%d: error: unmatched '%c'", open.line, open.col, open.char))
	}
	return diags
}
