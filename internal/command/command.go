// Package command implements the slash-command language spec.md §4.3
// describes: a schema tree of positional and flag parameters with optional
// child sub-commands, parsed out of one line of user input.
//
// Grounded on original_source/src/plugins/bookmarks.rs's command_def!
// macro-generated commands (no Go equivalent of a declarative macro exists,
// so the same shape is expressed as a plain struct tree) and on
// wilbur182-forge's internal/palette fuzzy-match idiom for surfacing
// command names during completion.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aparte-go/aparte/internal/apterr"
)

// Parser turns one token into a typed value.
type Parser func(tok string) (any, error)

// StringParser accepts any token verbatim.
func StringParser(tok string) (any, error) { return tok, nil }

// BoolParser accepts on/off/true/false/1/0.
func BoolParser(tok string) (any, error) {
	switch strings.ToLower(tok) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return nil, fmt.Errorf("not a boolean: %q", tok)
	}
}

// IntParser accepts a base-10 integer.
func IntParser(tok string) (any, error) {
	return strconv.Atoi(tok)
}

// Positional is one ordered, required-unless-Default-set parameter.
type Positional struct {
	Name    string
	Parse   Parser
	Default *string // if set and the token is absent, Default is parsed instead
}

// Flag is one unordered key=value parameter.
type Flag struct {
	Name  string
	Parse Parser
}

// Spec is one command-schema node: a name, its positional and flag
// parameters, optional children (the first positional selects a child),
// and literal help text printed verbatim by /help.
type Spec struct {
	Name        string
	Help        string
	Positionals []Positional
	Flags       []Flag
	Children    map[string]*Spec
}

// Command is the parsed result: the matched name, and the raw argument
// tokens that followed it (spec.md §3's Command{name, args}).
type Command struct {
	Name   string
	Args   []string
	Values map[string]any // positional name -> parsed value
	Flags  map[string]any // flag name -> parsed value
	Path   []string       // child-dispatch path, e.g. ["bookmark", "add"]
}

// Tokenize splits a line by whitespace, honouring "..." quoting and \
// escapes, per spec.md §4.3 step 1.
func Tokenize(line string) ([]string, error) {
	var toks []string
	var cur strings.Builder
	inQuote := false
	haveTok := false
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			cur.WriteRune(runes[i+1])
			haveTok = true
			i++
		case r == '"':
			inQuote = !inQuote
			haveTok = true
		case r == ' ' || r == '\t':
			if inQuote {
				cur.WriteRune(r)
			} else if haveTok || cur.Len() > 0 {
				toks = append(toks, cur.String())
				cur.Reset()
				haveTok = false
			}
		default:
			cur.WriteRune(r)
			haveTok = true
		}
	}
	if inQuote {
		return nil, apterr.ParseErr(fmt.Errorf("unterminated quote"))
	}
	if haveTok || cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks, nil
}

// Registry is the root table of command schemas a line is matched against.
type Registry struct {
	roots map[string]*Spec
	order []string
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{roots: make(map[string]*Spec)}
}

// Add registers a command schema at the root.
func (r *Registry) Add(spec *Spec) {
	if _, exists := r.roots[spec.Name]; !exists {
		r.order = append(r.order, spec.Name)
	}
	r.roots[spec.Name] = spec
}

// Names returns registered root command names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns a registered root spec by name.
func (r *Registry) Get(name string) (*Spec, bool) {
	s, ok := r.roots[name]
	return s, ok
}

// Parse implements spec.md §4.3's five-step algorithm against a line that
// must start with '/'. On any failure it returns an *apterr.Error wrapping
// apterr.Parse, never a partially-built Command.
func (r *Registry) Parse(line string) (*Command, error) {
	if !strings.HasPrefix(line, "/") {
		return nil, apterr.ParseErr(fmt.Errorf("not a command: %q", line))
	}
	toks, err := Tokenize(line[1:])
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, apterr.ParseErr(fmt.Errorf("empty command"))
	}
	root, ok := r.roots[toks[0]]
	if !ok {
		return nil, apterr.ParseErr(fmt.Errorf("unknown command: %q", toks[0]))
	}
	return parseNode(root, toks[0], toks[1:], nil)
}

func parseNode(spec *Spec, name string, rest []string, path []string) (*Command, error) {
	path = append(append([]string{}, path...), name)
	cmd := &Command{
		Name:   name,
		Values: make(map[string]any),
		Flags:  make(map[string]any),
		Path:   path,
	}

	idx := 0
	for _, p := range spec.Positionals {
		var tok string
		if idx < len(rest) && !isFlagToken(rest[idx]) {
			tok = rest[idx]
			idx++
		} else if p.Default != nil {
			tok = *p.Default
		} else {
			return nil, apterr.ParseErr(fmt.Errorf("missing required argument %q for /%s", p.Name, name))
		}
		val, err := p.Parse(tok)
		if err != nil {
			return nil, apterr.ParseErr(fmt.Errorf("argument %q: %w", p.Name, err))
		}
		cmd.Values[p.Name] = val
		cmd.Args = append(cmd.Args, tok)
	}

	// A command with children defers its entire flag tail to the chosen
	// child's own spec: a parent never has flags of its own once it
	// dispatches, and validating e.g. autojoin=on against the parent's
	// (empty) flag set would reject it before the child ever sees it.
	if len(spec.Children) > 0 {
		if len(cmd.Args) == 0 || len(spec.Positionals) == 0 {
			return nil, apterr.ParseErr(fmt.Errorf("/%s requires a sub-command", name))
		}
		childName, _ := cmd.Values[spec.Positionals[0].Name].(string)
		child, ok := spec.Children[childName]
		if !ok {
			return nil, apterr.ParseErr(fmt.Errorf("unknown /%s sub-command: %q", name, childName))
		}
		return parseNode(child, childName, rest[idx:], path)
	}

	flagParsers := make(map[string]Parser, len(spec.Flags))
	for _, f := range spec.Flags {
		flagParsers[f.Name] = f.Parse
	}

	var remaining []string
	for _, tok := range rest[idx:] {
		key, val, ok := splitFlag(tok)
		if !ok {
			remaining = append(remaining, tok)
			continue
		}
		parse, known := flagParsers[key]
		if !known {
			return nil, apterr.ParseErr(fmt.Errorf("unknown parameter %q for /%s", key, name))
		}
		parsed, err := parse(val)
		if err != nil {
			return nil, apterr.ParseErr(fmt.Errorf("parameter %q: %w", key, err))
		}
		cmd.Flags[key] = parsed
		cmd.Args = append(cmd.Args, tok)
	}

	cmd.Args = append(cmd.Args, remaining...)
	return cmd, nil
}

func isFlagToken(tok string) bool {
	_, _, ok := splitFlag(tok)
	return ok
}

func splitFlag(tok string) (key, val string, ok bool) {
	i := strings.IndexByte(tok, '=')
	if i <= 0 {
		return "", "", false
	}
	return tok[:i], tok[i+1:], true
}

// Format serialises a command back into a "/name a b key=v" line, the
// inverse of Parse, used by the round-trip test property in spec.md §8.
func Format(name string, args []string) string {
	var sb strings.Builder
	sb.WriteByte('/')
	sb.WriteString(name)
	for _, a := range args {
		sb.WriteByte(' ')
		if strings.ContainsAny(a, " \t") {
			sb.WriteByte('"')
			sb.WriteString(a)
			sb.WriteByte('"')
		} else {
			sb.WriteString(a)
		}
	}
	return sb.String()
}
