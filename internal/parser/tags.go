package parser

import "strings"

// InferTags returns the vocabulary terms found in the highlight text or its
// annotation, in vocabulary order. Matching is case-sensitive substring
// containment, so a term inside a longer word matches. It returns nil when
// nothing matched.
func InferTags(text string, annotation *string, vocabulary []string) []string {
	combined := text + " "
	if annotation != nil {
		combined += *annotation
	}

	var found []string
	seen := make(map[string]struct{})
	for _, tag := range vocabulary {
		if _, dup := seen[tag]; dup {
			continue
		}
		if strings.Contains(combined, tag) {
			seen[tag] = struct{}{}
			found = append(found, tag)
		}
	}
	return found
}
