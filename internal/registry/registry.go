package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"SLComply/internal/domain"
)

// keyExpr accepts internal column keys such as SLM_1_05_03.
var keyExpr = regexp.MustCompile(`^([A-Za-z0-9]{3})_([0-9]+(?:_[0-9]+)*)$`)

// Decode turns an internal related-document key into its display name
// (SLM_1_05_03 becomes "SLM 1.05.03").
func Decode(key string) (string, error) {
	m := keyExpr.FindStringSubmatch(key)
	if m == nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDocumentKey, key)
	}
	return strings.ToUpper(m[1]) + " " + strings.ReplaceAll(m[2], "_", "."), nil
}

// Registry keeps the related documents seen per category during one refresh.
type Registry struct {
	names      map[string]string
	categories map[domain.Category]map[string]struct{}
	rejected   map[string]error
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		names:      map[string]string{},
		categories: map[domain.Category]map[string]struct{}{},
		rejected:   map[string]error{},
	}
}

// Register records a key for a category and returns its display name.
func (r *Registry) Register(category domain.Category, key string) (string, error) {
	name, err := r.Resolve(key)
	if err != nil {
		return "", err
	}
	if category == "" {
		return name, nil
	}
	docs, ok := r.categories[category]
	if !ok {
		docs = map[string]struct{}{}
		r.categories[category] = docs
	}
	docs[name] = struct{}{}
	return name, nil
}

// Resolve returns the display name for a key, remembering rejected keys.
func (r *Registry) Resolve(key string) (string, error) {
	if name, ok := r.names[key]; ok {
		return name, nil
	}
	if err, ok := r.rejected[key]; ok {
		return "", err
	}
	name, err := Decode(key)
	if err != nil {
		r.rejected[key] = err
		return "", err
	}
	r.names[key] = name
	return name, nil
}

// Documents lists the related documents registered for a category, sorted.
func (r *Registry) Documents(category domain.Category) []string {
	docs := make([]string, 0, len(r.categories[category]))
	for name := range r.categories[category] {
		docs = append(docs, name)
	}
	sort.Strings(docs)
	return docs
}

// Rejected lists keys that could not be decoded, sorted.
func (r *Registry) Rejected() []string {
	keys := make([]string, 0, len(r.rejected))
	for key := range r.rejected {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
