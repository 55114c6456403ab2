package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/fwi-service/internal/domain"
)

// Entry binds a display name to a trained predictor.
type Entry struct {
	Name      string
	Kind      Kind
	Predictor Predictor
}

// Registry is the closed set of models available for dispatch. It is built
// once and never modified, so concurrent Predict calls need no locking.
type Registry struct {
	entries []Entry
	byName  map[string]int
}

// NewRegistry builds a registry preserving the order of entries.
func NewRegistry(entries ...Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("registry needs at least one model")
	}
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, errors.New("model name must not be empty")
		}
		if e.Predictor == nil {
			return nil, fmt.Errorf("model %q has no predictor", e.Name)
		}
		if _, dup := r.byName[e.Name]; dup {
			return nil, fmt.Errorf("model %q registered twice", e.Name)
		}
		r.byName[e.Name] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Names returns model names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the registered entries.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Predict dispatches x to the named model. Model failures and non-finite
// outputs are reported as *domain.InferenceError.
func (r *Registry) Predict(name string, x domain.NormalizedVector) (float64, error) {
	i, ok := r.byName[name]
	if !ok {
		return 0, &domain.UnknownModelError{Name: name, Known: r.Names()}
	}
	y, err := r.entries[i].Predictor.Predict(x)
	if err != nil {
		return 0, &domain.InferenceError{Model: name, Err: err}
	}
	if !domain.IsFinite(y) {
		return 0, &domain.InferenceError{Model: name, Err: fmt.Errorf("non-finite output %g", y)}
	}
	return y, nil
}

// Describe returns a short summary of a predictor's structure.
func Describe(p Predictor) string {
	switch m := p.(type) {
	case *Linear:
		return fmt.Sprintf("linear, intercept %.4g", m.intercept)
	case *Tree:
		return fmt.Sprintf("tree, %d nodes, depth %d", len(m.nodes), m.Depth())
	case *Forest:
		return fmt.Sprintf("forest, %d trees", m.Size())
	case *SVR:
		return fmt.Sprintf("svr, %d support vectors", len(m.support))
	default:
		return fmt.Sprintf("%T", p)
	}
}
