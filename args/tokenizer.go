// Package args converts a raw process argument vector into a command path
// and an options mapping.
//
// The tokenizer is deliberately dumb about types: option values stay strings
// (or boolean true for bare flags) and all further coercion belongs to the
// input schema. Positions 0 and 1 of the vector are reserved for the runtime
// and script path; meaningful arguments start at index 2.
package args

import "strings"

// Reserved command paths produced by the global short-circuit flags.
const (
	PathHelp    = "help"
	PathVersion = "version"
)

const (
	helpFlagLong     = "--help"
	helpFlagShort    = "-h"
	versionFlagLong  = "--version"
	versionFlagShort = "-v"
)

// AliasResolver maps an alias-form internal path to its canonical name.
// The registry satisfies this.
type AliasResolver interface {
	Canonical(name string) (string, bool)
}

// Result is the outcome of tokenizing one argument vector.
type Result struct {
	// Path is the internal colon-delimited command path, alias-resolved.
	Path string
	// HelpTarget is the internal name of the command help was requested
	// for, when Path is PathHelp and the user named one ("help user create").
	// Empty means general help.
	HelpTarget string
	// Options maps option names to string values, or boolean true for bare
	// flags.
	Options map[string]any
}

// Tokenizer turns argument vectors into results. Aliases may be nil, in
// which case paths are returned as written.
type Tokenizer struct {
	Aliases AliasResolver
}

// Tokenize applies the resolution rules in order: too few arguments means
// help; --help/-h anywhere wins over everything, --version/-v next; leading
// tokens without a -- prefix form the command path; "help" consumes the
// remaining path segments as its target; the rest is option grammar.
func (t *Tokenizer) Tokenize(argv []string) *Result {
	res := &Result{Options: map[string]any{}}

	if len(argv) < 3 {
		res.Path = PathHelp
		return res
	}
	rest := argv[2:]

	for _, tok := range rest {
		if tok == helpFlagLong || tok == helpFlagShort {
			res.Path = PathHelp
			return res
		}
	}
	for _, tok := range rest {
		if tok == versionFlagLong || tok == versionFlagShort {
			res.Path = PathVersion
			return res
		}
	}

	var segments []string
	i := 0
	for ; i < len(rest); i++ {
		if strings.HasPrefix(rest[i], "--") {
			break
		}
		segments = append(segments, rest[i])
	}

	if len(segments) == 0 {
		res.Path = PathHelp
		return res
	}

	if segments[0] == PathHelp {
		res.Path = PathHelp
		if len(segments) > 1 {
			res.HelpTarget = t.resolve(strings.Join(segments[1:], ":"))
		}
		return res
	}

	res.Path = t.resolve(strings.Join(segments, ":"))
	t.parseOptions(rest[i:], res.Options)
	return res
}

// parseOptions consumes option tokens: --key=value, --key value, and bare
// --key (boolean true when followed by another flag or end of input).
func (t *Tokenizer) parseOptions(toks []string, into map[string]any) {
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if !strings.HasPrefix(tok, "--") {
			// Stray positional between options; nothing claims it.
			continue
		}
		key := tok[2:]
		if eq := strings.Index(key, "="); eq >= 0 {
			into[key[:eq]] = key[eq+1:]
			continue
		}
		if i+1 < len(toks) && !strings.HasPrefix(toks[i+1], "--") {
			into[key] = toks[i+1]
			i++
			continue
		}
		into[key] = true
	}
}

func (t *Tokenizer) resolve(path string) string {
	if t.Aliases != nil {
		if canonical, ok := t.Aliases.Canonical(path); ok {
			return canonical
		}
	}
	return path
}
