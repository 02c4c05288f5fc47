package goupi

import "strings"

// Placeholder tokens understood by the resolver.
const (
	ContentTag = "<GoupiContent/>"
	DateTag    = "<GoupiDate/>"

	tagOpen  = "<Goupi"
	tagClose = "/>"
)

// TemplateResolver substitutes placeholders in the prelude.
type TemplateResolver struct {
	clock Clock
}

// NewTemplateResolver creates a resolver that reads <GoupiDate/> from clock.
func NewTemplateResolver(clock Clock) *TemplateResolver {
	return &TemplateResolver{clock: clock}
}

// Resolve fills template with content and configuration values.
//
// <GoupiContent/> is replaced first, then <GoupiDate/>, then every other
// <GoupiX/> token found in the partially substituted text, looking X up in
// post before site. A token found in neither configuration fails the whole
// call with an *UnresolvedTagError and no output.
func (r *TemplateResolver) Resolve(template string, post, site Configuration, content string) (string, error) {
	result := strings.ReplaceAll(template, ContentTag, content)

	if strings.Contains(result, DateTag) {
		result = strings.ReplaceAll(result, DateTag, formatDisplay(r.clock.Now()))
	}

	for _, tag := range scanTags(result) {
		name := tag[len(tagOpen) : len(tag)-len(tagClose)]
		v, ok := ResolveKey(name, post, site)
		if !ok {
			return "", &UnresolvedTagError{Tag: name}
		}
		result = strings.ReplaceAll(result, tag, v.String())
	}

	return result, nil
}

// scanTags returns the distinct <GoupiX/> tokens of s in first-occurrence
// order. An opening without a closing delimiter is skipped.
func scanTags(s string) []string {
	var tags []string
	seen := make(map[string]bool)

	start := 0
	for {
		open := strings.Index(s[start:], tagOpen)
		if open < 0 {
			break
		}
		open += start

		end := strings.Index(s[open:], tagClose)
		if end < 0 {
			start = open + len(tagOpen)
			continue
		}
		end += open + len(tagClose)

		tag := s[open:end]
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
		start = end
	}

	return tags
}
