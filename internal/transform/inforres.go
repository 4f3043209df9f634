package transform

import (
	"regexp"
	"strings"
)

// InfoResRule implements the four-form InfoRes rewrite rule: a
// free-text knowledge-source name is minted into an InfoRes
// identifier by an optional regex delete/replace step followed by the
// mandatory lowercase/strip/join step.
type InfoResRule struct {
	pattern     *regexp.Regexp
	replacement string
	prefix      string
}

// NewInfoResRule builds the bare `true` form: lowercase N, strip
// non-alphanumerics, join words with "-".
func NewInfoResRule() *InfoResRule { return &InfoResRule{} }

// WithPattern adds the `(regex)` / `(regex, sub)` forms: matches of
// pattern are replaced with replacement (deleted, if replacement is
// empty) before the `true`-rule runs.
func (r *InfoResRule) WithPattern(pattern, replacement string) (*InfoResRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	r.pattern = re
	r.replacement = replacement
	return r, nil
}

// WithPrefix adds the `(regex, sub, prefix)` form: prefix selects the
// CURIE namespace the mint lands in.
func (r *InfoResRule) WithPrefix(prefix string) *InfoResRule {
	r.prefix = prefix
	return r
}

// Namespace returns the CURIE prefix this rule mints into: the
// `(regex, sub, prefix)` form's explicit prefix, or "infores" for the
// other three forms.
func (r *InfoResRule) Namespace() string {
	if r != nil && r.prefix != "" {
		return r.prefix
	}
	return "infores"
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Apply mints an InfoRes local id (without the CURIE namespace, which
// callers add via Namespace) from free-text source name n.
func (r *InfoResRule) Apply(n string) string {
	if r == nil {
		return n
	}
	if r.pattern != nil {
		n = r.pattern.ReplaceAllString(n, r.replacement)
	}
	words := nonAlphanumeric.Split(strings.ToLower(n), -1)
	var kept []string
	for _, w := range words {
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, "-")
}

// Catalog records original -> minted InfoRes rewrites, accessible
// after a transform completes.
type Catalog struct {
	entries map[string]string
	order   []string
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]string)}
}

// Rewrite mints (or reuses a previously minted) InfoRes CURIE for
// original, recording the mapping in the catalog.
func (c *Catalog) Rewrite(original string, rule *InfoResRule) string {
	if minted, ok := c.entries[original]; ok {
		return minted
	}
	if strings.HasPrefix(original, "infores:") {
		c.entries[original] = original
		c.order = append(c.order, original)
		return original
	}
	minted := rule.Namespace() + ":" + rule.Apply(original)
	c.entries[original] = minted
	c.order = append(c.order, original)
	return minted
}

// Preload seeds the catalog with previously minted entries (e.g. from
// a shared kgcache), so concurrent runs reuse identifiers instead of
// re-minting. Existing entries win over preloaded ones.
func (c *Catalog) Preload(entries map[string]string) {
	for original, minted := range entries {
		if _, ok := c.entries[original]; ok {
			continue
		}
		c.entries[original] = minted
		c.order = append(c.order, original)
	}
}

// Entries returns a copy of the catalog as an original -> minted map,
// suitable for JSON serialization.
func (c *Catalog) Entries() map[string]string {
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
