package decode

import (
	"fmt"
	"strings"

	"seqrenamer/internal/mapping"
	"seqrenamer/internal/record"
)

// AmbiguousMappingError reports an ID or Parent token that does not resolve
// to exactly one entry. Feature records cannot be reduplicated because their
// children would not know which copy they belong to.
type AmbiguousMappingError struct {
	Attribute string
	Token     string
	Matches   int
	Pos       record.Pos
}

func (e *AmbiguousMappingError) Error() string {
	return fmt.Sprintf("%s: %s %q resolves to %d mapping entries, want exactly 1", e.Pos, e.Attribute, e.Token, e.Matches)
}

// RewriteFeature replaces the ID attribute and each Parent token of f with
// the original id. Other attributes, attribute order and the Parent
// separators are preserved. On error f is left unchanged.
func RewriteFeature(f record.Feature, lookup mapping.Lookup) error {
	attrs := append([]record.Attribute(nil), f.Attributes()...)
	for i, a := range attrs {
		switch a.Key {
		case "ID":
			if a.Value == "" {
				continue
			}
			old, err := resolveOne(lookup, a.Key, a.Value, f.Pos())
			if err != nil {
				return err
			}
			attrs[i].Value = old
		case "Parent":
			v, err := rewriteParents(lookup, a.Value, f.Pos())
			if err != nil {
				return err
			}
			attrs[i].Value = v
		}
	}
	f.SetAttributes(attrs)
	return nil
}

func rewriteParents(lookup mapping.Lookup, value string, pos record.Pos) (string, error) {
	tokens := strings.Split(value, ",")
	for i, tok := range tokens {
		lead, core, trail := record.SplitToken(tok)
		if core == "" {
			continue
		}
		old, err := resolveOne(lookup, "Parent", core, pos)
		if err != nil {
			return "", err
		}
		tokens[i] = lead + old + trail
	}
	return strings.Join(tokens, ","), nil
}

func resolveOne(lookup mapping.Lookup, attr, token string, pos record.Pos) (string, error) {
	entries, err := lookup.Lookup(token)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 {
		return "", &AmbiguousMappingError{Attribute: attr, Token: token, Matches: len(entries), Pos: pos}
	}
	return entries[0].OldID, nil
}
