package param

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrDuplicateID is returned when two parameters share an ID.
	ErrDuplicateID = errors.New("param: duplicate parameter id")
	// ErrUnknownID is returned for IDs that were never registered.
	ErrUnknownID = errors.New("param: unknown parameter id")
)

// Registry holds the parameters of one instrument in registration order.
// It belongs to the control context; the render context only ever sees
// values carried by commands.
type Registry struct {
	mu     sync.RWMutex
	byID   map[uint32]*Parameter
	params []*Parameter
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[uint32]*Parameter)}
}

// Add registers params in order. Nothing is registered if any ID is taken,
// either by an earlier parameter or within params itself.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uint32]bool, len(params))
	for _, p := range params {
		if _, taken := r.byID[p.ID]; taken || seen[p.ID] {
			return errors.Wrapf(ErrDuplicateID, "id %d (%s)", p.ID, p.Name)
		}
		seen[p.ID] = true
	}

	for _, p := range params {
		r.byID[p.ID] = p
		r.params = append(r.params, p)
	}
	return nil
}

// Get returns the parameter with id, or nil.
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Set clamps and stores plain for parameter id and returns the stored value.
func (r *Registry) Set(id uint32, plain float64) (float64, error) {
	p := r.Get(id)
	if p == nil {
		return 0, errors.Wrapf(ErrUnknownID, "id %d", id)
	}
	return p.SetValue(plain), nil
}

// Count returns the number of parameters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.params)
}

// All returns the parameters in registration order.
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Parameter, len(r.params))
	copy(out, r.params)
	return out
}
