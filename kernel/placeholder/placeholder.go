// Package placeholder resolves "${scope:variable|default}" fragments
// inside string Values, per spec §4.3. Detection and escaping are
// string-level; resolution walks the ingress property tree after
// schema adjust and replaces matching string Values in place.
package placeholder

import (
	"os"
	"strconv"
	"strings"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

// Resolver maps a scope name to a lookup function. The zero value has
// no scopes registered; use NewResolver for the standard "env" scope.
type Resolver struct {
	scopes map[string]func(variable string) (string, bool)
}

// NewResolver returns a Resolver with the "env" scope wired to the
// process environment via os.LookupEnv, the only scope spec §4.3
// currently names.
func NewResolver() *Resolver {
	r := &Resolver{scopes: map[string]func(string) (string, bool){}}
	r.RegisterScope("env", os.LookupEnv)
	return r
}

// RegisterScope adds or replaces a scope's lookup function.
func (r *Resolver) RegisterScope(scope string, lookup func(variable string) (string, bool)) {
	r.scopes[scope] = lookup
}

// placeholderExpr holds a single "${scope:variable|default}" parse.
type placeholderExpr struct {
	scope    string
	variable string
	hasDef   bool
	def      string
}

// isPlaceholder reports whether s, unescaped, is a placeholder
// expression: starts with "${" and ends with "}". A literal "${" that
// the source escaped with a leading backslash ("\${...}") is not a
// placeholder (invariant 5).
func isPlaceholder(s string) bool {
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") && !strings.HasPrefix(s, `\${`)
}

// unescape turns a literal "\${" prefix into "${" for strings that
// were escaped out of placeholder resolution, and leaves every other
// backslash alone (spec §4.3 only names "${" escaping).
func unescape(s string) string {
	if strings.HasPrefix(s, `\${`) {
		return s[1:]
	}
	return s
}

// parse splits "scope:variable|default" (the "${" and "}" delimiters
// already stripped) into its three parts. A literal "|" inside default
// is recovered by un-escaping "\|" back to "|" (spec §4.3 example:
// "${env:X|\\|}" yields default value "|").
func parse(body string) (placeholderExpr, *flowerr.Error) {
	colon := strings.IndexByte(body, ':')
	if colon < 0 {
		return placeholderExpr{}, flowerr.New(flowerr.CodeParse, "placeholder: missing scope separator in %q", body)
	}
	scope := body[:colon]
	rest := body[colon+1:]

	bar := findUnescapedBar(rest)
	if bar < 0 {
		return placeholderExpr{scope: scope, variable: rest, hasDef: false}, nil
	}
	variable := rest[:bar]
	def := strings.ReplaceAll(rest[bar+1:], `\|`, "|")
	return placeholderExpr{scope: scope, variable: variable, hasDef: true, def: def}, nil
}

func findUnescapedBar(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '|' {
			i++
			continue
		}
		if s[i] == '|' {
			return i
		}
	}
	return -1
}

// Expand resolves a single string, if it is a placeholder expression.
// Non-placeholder strings (including escaped ones) are returned
// unescaped but otherwise unchanged. On a scope miss, the default is
// parsed as a JSON fragment per spec §4.3 ("empty after | means empty
// string; absent | means null") and re-encoded back to its textual
// form so the caller always receives a string.
func (r *Resolver) Expand(s string) (string, *flowerr.Error) {
	if !isPlaceholder(s) {
		return unescape(s), nil
	}
	body := s[2 : len(s)-1]
	expr, err := parse(body)
	if err != nil {
		return "", err
	}
	lookup, ok := r.scopes[expr.scope]
	if !ok {
		return "", flowerr.New(flowerr.CodeInvalidArgument, "placeholder: unknown scope %q", expr.scope)
	}
	if v, found := lookup(expr.variable); found {
		return v, nil
	}
	return defaultText(expr)
}

// defaultText resolves a placeholder's default clause to its textual
// substitution, parsing it as a JSON fragment and rendering scalars
// back to plain text (objects/arrays are rendered as JSON).
func defaultText(expr placeholderExpr) (string, *flowerr.Error) {
	if !expr.hasDef {
		return "null", nil
	}
	if expr.def == "" {
		return "", nil
	}
	v, err := value.FromJSON([]byte(expr.def))
	if err != nil {
		// Not valid JSON on its own (e.g. a bare word): treat the
		// raw default text as a string literal, matching the
		// forgiving defaulting spec §4.3 describes for "env" misses.
		return expr.def, nil
	}
	if v.IsString() {
		s, _ := v.PeekRawStr()
		return s, nil
	}
	rendered, rerr := v.ToJSON()
	if rerr != nil {
		return "", flowerr.New(flowerr.CodeGeneric, "placeholder: render default: %v", rerr)
	}
	return string(rendered), nil
}

// ResolveTree walks v recursively (objects and arrays), replacing every
// string Value that parses as a placeholder expression with its
// resolved string Value, in place. Non-string, non-container Values are
// left untouched.
func (r *Resolver) ResolveTree(v *value.Value) *flowerr.Error {
	if v.IsInvalid() {
		return nil
	}
	switch {
	case v.IsString():
		raw, _ := v.PeekRawStr()
		resolved, err := r.Expand(raw)
		if err != nil {
			return err
		}
		v.Assign(value.NewString(resolved))
	case v.IsObject():
		for _, key := range v.ObjectKeys() {
			child, ok := v.ObjectPeek(key)
			if !ok {
				continue
			}
			if err := r.ResolveTree(child); err != nil {
				return err.WithPath("." + key)
			}
		}
	case v.IsArray():
		elems, _ := v.PeekArray()
		for i, elem := range elems {
			if err := r.ResolveTree(elem); err != nil {
				return err.WithPath(indexPath(i))
			}
		}
	}
	return nil
}

func indexPath(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
