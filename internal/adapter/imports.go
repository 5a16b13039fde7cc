package adapter

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	m "refmove.dev/pkg/refmove/internal/model"
)

// ImportSpec is one module specifier found in a source file.
type ImportSpec struct {
	Specifier string
	// Start and End delimit the specifier text, quotes excluded.
	Start int
	End   int
	Line  int
}

// importPattern matches the quoted specifier of static imports, re-exports,
// side-effect imports, dynamic imports and require calls.
var importPattern = regexp.MustCompile(`(?:\bfrom\s*|\bimport\s*\(?\s*|\brequire\s*\(\s*)(['"])([^'"\r\n]+)['"]`)

// jsToTS maps a runtime extension written in a specifier to the source
// extensions it may stand for.
var jsToTS = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// ParseImports returns every import specifier in content, in source order.
func ParseImports(content []byte) []ImportSpec {
	locs := importPattern.FindAllSubmatchIndex(content, -1)
	specs := make([]ImportSpec, 0, len(locs))

	line, lineOffset := 1, 0

	code := codeMask(content)

	for _, loc := range locs {
		// The keyword and the opening quote must both sit in code, not in a
		// comment or in the body of another literal.
		if !code[loc[0]] || !code[loc[2]] {
			continue
		}

		start, end := loc[4], loc[5]

		for i := lineOffset; i < start; i++ {
			if content[i] == '\n' {
				line++
			}
		}

		lineOffset = start

		specs = append(specs, ImportSpec{
			Specifier: string(content[start:end]),
			Start:     start,
			End:       end,
			Line:      line,
		})
	}

	return specs
}

type scanState int

const (
	scanCode scanState = iota
	scanLineComment
	scanBlockComment
	scanSingleQuote
	scanDoubleQuote
	scanTemplate
)

// codeMask reports, per byte of content, whether the byte is program code.
// Comment text and literal bodies are not code; the quote that opens a
// literal is. Expressions inside template substitutions are code again.
// Regular expression literals are not recognised.
func codeMask(content []byte) []bool {
	mask := make([]bool, len(content))
	state := scanCode

	var (
		depth int
		// brace depth at which each open template substitution closes
		substitutions []int
	)

	next := func(i int) byte {
		if i+1 < len(content) {
			return content[i+1]
		}

		return 0
	}

	for i := 0; i < len(content); i++ {
		c := content[i]

		switch state {
		case scanCode:
			switch {
			case c == '/' && next(i) == '/':
				state = scanLineComment
				i++

				continue
			case c == '/' && next(i) == '*':
				state = scanBlockComment
				i++

				continue
			case c == '\'':
				state = scanSingleQuote
			case c == '"':
				state = scanDoubleQuote
			case c == '`':
				state = scanTemplate
			case c == '{':
				depth++
			case c == '}':
				if n := len(substitutions); n > 0 && substitutions[n-1] == depth {
					substitutions = substitutions[:n-1]
					state = scanTemplate

					continue
				}

				depth--
			}

			mask[i] = true
		case scanLineComment:
			if c == '\n' {
				state = scanCode
				mask[i] = true
			}
		case scanBlockComment:
			if c == '*' && next(i) == '/' {
				state = scanCode
				i++
			}
		case scanSingleQuote, scanDoubleQuote:
			quote := byte('\'')
			if state == scanDoubleQuote {
				quote = '"'
			}

			switch c {
			case '\\':
				i++
			case quote, '\n':
				state = scanCode
			}
		case scanTemplate:
			switch {
			case c == '\\':
				i++
			case c == '`':
				state = scanCode
			case c == '$' && next(i) == '{':
				substitutions = append(substitutions, depth)
				state = scanCode
				i++
			}
		}
	}

	return mask
}

// IsRelativeSpecifier reports whether spec points into the local tree.
func IsRelativeSpecifier(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// ResolveSpecifier maps a relative specifier written in a file under fromDir to
// the source file it designates. exists must report whether a regular file is
// present at a path.
func ResolveSpecifier(fromDir m.Path, spec string, extensions []string, exists func(m.Path) bool) (m.Path, bool) {
	if !IsRelativeSpecifier(spec) {
		return "", false
	}

	base := filepath.Join(string(fromDir), filepath.FromSlash(spec))

	for _, candidate := range specifierCandidates(base, extensions) {
		if exists(candidate) {
			return candidate, true
		}
	}

	return "", false
}

func specifierCandidates(base string, extensions []string) []m.Path {
	candidates := make([]m.Path, 0, 2*len(extensions)+3)
	candidates = append(candidates, m.Path(base))

	for _, ext := range extensions {
		candidates = append(candidates, m.Path(base+ext))
	}

	ext := filepath.Ext(base)
	for _, tsExt := range jsToTS[ext] {
		candidates = append(candidates, m.Path(strings.TrimSuffix(base, ext)+tsExt))
	}

	for _, ext := range extensions {
		candidates = append(candidates, m.Path(filepath.Join(base, "index"+ext)))
	}

	return candidates
}

// RewriteSpecifier computes the specifier a file at fromFile must use to reach
// target, keeping the style of the original specifier: explicit extensions,
// runtime (.js) extensions and directory imports survive the rewrite.
func RewriteSpecifier(original string, fromFile, target m.Path) string {
	rel, err := filepath.Rel(string(fromFile.Dir()), string(target))
	if err != nil {
		return original
	}

	rel = filepath.ToSlash(rel)
	targetExt := path.Ext(rel)
	targetStem := strings.TrimSuffix(path.Base(rel), targetExt)
	origBase := path.Base(strings.TrimSuffix(original, "/"))
	origExt := path.Ext(origBase)

	switch {
	case targetStem == "index" && origBase != "index" && !strings.HasPrefix(origBase, "index."):
		rel = path.Dir(rel)
	case origExt != "" && origExt == targetExt:
		// explicit extension, keep rel as is
	case origExt != "" && isRuntimeFor(origExt, targetExt):
		rel = strings.TrimSuffix(rel, targetExt) + origExt
	default:
		rel = strings.TrimSuffix(rel, targetExt)
	}

	if rel == "." {
		return "."
	}

	if rel == ".." || strings.HasPrefix(rel, "../") {
		return rel
	}

	return "./" + rel
}

func isRuntimeFor(runtimeExt, sourceExt string) bool {
	for _, ext := range jsToTS[runtimeExt] {
		if ext == sourceExt {
			return true
		}
	}

	return false
}
