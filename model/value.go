package model

import "strings"

// PartialValue is the lattice element produced by the value tracker (spec
// §3.1, §4.2). Equality is structural: two PartialValues are equal iff
// their Key() strings match, which is what the matcher uses for
// call-bucket grouping (spec §8, "Environment-var grouping").
type PartialValue interface {
	partialValue()
	// Key returns a canonical structural representation used for
	// equality and map-keying.
	Key() string
	// String renders a human-readable form for diagnostics.
	String() string
}

// Literal is a fully statically-known string fragment.
type Literal string

func (Literal) partialValue()    {}
func (l Literal) Key() string    { return "L:" + string(l) }
func (l Literal) String() string { return string(l) }

// Template is an ordered concatenation of partial values. Canonicalize
// merges adjacent Literal parts (spec invariant 5).
type Template struct {
	Parts []PartialValue
}

func (Template) partialValue() {}
func (t Template) Key() string {
	var b strings.Builder
	b.WriteString("T[")
	for i, p := range t.Parts {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(p.Key())
	}
	b.WriteString("]")
	return b.String()
}
func (t Template) String() string {
	var b strings.Builder
	for _, p := range t.Parts {
		b.WriteString(p.String())
	}
	return b.String()
}

// NewTemplate builds a Template from parts, canonicalizing by merging
// adjacent Literal parts, dropping empty Literal parts and flattening
// nested Templates, per invariant 5.
func NewTemplate(parts ...PartialValue) PartialValue {
	merged := mergeParts(parts)
	if len(merged) == 1 {
		return merged[0]
	}
	if len(merged) == 0 {
		return Literal("")
	}
	return Template{Parts: merged}
}

func mergeParts(parts []PartialValue) []PartialValue {
	var flat []PartialValue
	for _, p := range parts {
		if t, ok := p.(Template); ok {
			flat = append(flat, mergeParts(t.Parts)...)
			continue
		}
		flat = append(flat, p)
	}

	var out []PartialValue
	for _, p := range flat {
		if lit, ok := p.(Literal); ok {
			if lit == "" {
				continue
			}
			if len(out) > 0 {
				if prev, ok := out[len(out)-1].(Literal); ok {
					out[len(out)-1] = prev + lit
					continue
				}
			}
			out = append(out, lit)
			continue
		}
		out = append(out, p)
	}
	return out
}

// EnvVar is a reference to a named environment variable whose value is
// opaque at analysis time but stably identified by Name (spec §3.1).
type EnvVar struct {
	Name string
}

func (EnvVar) partialValue()    {}
func (e EnvVar) Key() string    { return "E:" + e.Name }
func (e EnvVar) String() string { return "${" + e.Name + "}" }

// Unknown is everything the value tracker cannot fold statically. Reason
// is a short tag describing why (e.g. "call", "unbound:x", "recursive").
type Unknown struct {
	Reason string
}

func (Unknown) partialValue()    {}
func (u Unknown) Key() string    { return "U:" + u.Reason }
func (u Unknown) String() string { return "<unknown:" + u.Reason + ">" }

// Equal reports whether two PartialValues are structurally identical.
func Equal(a, b PartialValue) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}

// IsUnknown reports whether v is an Unknown variant, or a Template
// containing one — used to poison-propagate per spec §4.6 ("If any
// component is Unknown or EnvVar, the result path is Unknown").
func IsUnknown(v PartialValue) bool {
	switch t := v.(type) {
	case Unknown:
		return true
	case Template:
		for _, p := range t.Parts {
			if IsUnknown(p) {
				return true
			}
		}
	}
	return false
}

// HasEnvVar reports whether v contains an EnvVar component anywhere.
func HasEnvVar(v PartialValue) bool {
	switch t := v.(type) {
	case EnvVar:
		return true
	case Template:
		for _, p := range t.Parts {
			if HasEnvVar(p) {
				return true
			}
		}
	}
	return false
}

// IsLiteral reports whether v folds to a single fully-known Literal.
func IsLiteral(v PartialValue) (Literal, bool) {
	switch t := v.(type) {
	case Literal:
		return t, true
	case Template:
		merged := mergeParts(t.Parts)
		if len(merged) == 1 {
			if lit, ok := merged[0].(Literal); ok {
				return lit, true
			}
		}
	}
	return "", false
}

// Concat joins two partial values left-to-right, canonicalizing the
// result per invariant 5. Used both by the value tracker (rule 5,
// string concatenation) and the absolute-path materializer (prefix
// accumulation, spec §4.6).
func Concat(a, b PartialValue) PartialValue {
	return NewTemplate(a, b)
}
