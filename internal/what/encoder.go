package what

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// maxDepth bounds recursion so that self-referencing values fail instead of
// overflowing the stack.
const maxDepth = 256

// HandlerFunc encodes v, or reports ok=false when v is not its concern.
// Handlers recurse into nested values through e.
type HandlerFunc func(e *Encoder, v any) (s string, ok bool, err error)

// Handler is a named link in the encoder chain.
type Handler struct {
	Name   string
	Encode HandlerFunc
}

// Registry is an ordered, concurrency-safe chain of handlers.
//
// Encoding takes a snapshot of the chain under a read lock, so Insert, Drop
// and Reset may run while other goroutines encode.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewRegistry returns a registry holding the default chain.
func NewRegistry() *Registry {
	return &Registry{handlers: DefaultHandlers()}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry used when no registry
// is given explicitly.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Handlers returns a copy of the current chain.
func (r *Registry) Handlers() []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.handlers)
}

// Names returns the handler names in chain order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.handlers))
	for i, h := range r.handlers {
		names[i] = h.Name
	}
	return names
}

// Insert adds h to the chain ahead of the handler named before. An empty
// before inserts ahead of the object fallback, or appends when that handler
// has been dropped.
func (r *Registry) Insert(h Handler, before string) error {
	if h.Name == "" || h.Encode == nil {
		return &Error{Code: ErrCodeHandlerRegistry, Message: "handler needs a name and an encode func"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(h.Name) >= 0 {
		return &Error{
			Code:    ErrCodeHandlerRegistry,
			Message: fmt.Sprintf("cannot insert handler %s, already in chain", h.Name),
		}
	}
	at := len(r.handlers)
	if before == "" {
		if i := r.indexOf(HandlerObject); i >= 0 {
			at = i
		}
	} else {
		at = r.indexOf(before)
		if at < 0 {
			return &Error{
				Code:    ErrCodeHandlerRegistry,
				Message: fmt.Sprintf("handler to insert before (%s) not in chain", before),
			}
		}
	}
	r.handlers = slices.Insert(r.handlers, at, h)
	return nil
}

// Append adds h at the end of the chain.
func (r *Registry) Append(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(h.Name) >= 0 {
		return &Error{
			Code:    ErrCodeHandlerRegistry,
			Message: fmt.Sprintf("cannot insert handler %s, already in chain", h.Name),
		}
	}
	r.handlers = append(r.handlers, h)
	return nil
}

// Drop removes the handler called name.
func (r *Registry) Drop(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(name)
	if i < 0 {
		return &Error{
			Code:    ErrCodeHandlerRegistry,
			Message: fmt.Sprintf("cannot drop handler %s, not in chain", name),
		}
	}
	r.handlers = slices.Delete(r.handlers, i, i+1)
	return nil
}

// Reset restores the default chain.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = DefaultHandlers()
}

func (r *Registry) indexOf(name string) int {
	return slices.IndexFunc(r.handlers, func(h Handler) bool { return h.Name == name })
}

// Encoder renders values with a fixed snapshot of a registry's chain.
// An Encoder is not safe for concurrent use; create one per goroutine.
type Encoder struct {
	handlers  []Handler
	depth     int
	normalize bool
}

// Encoder returns an encoder over the current chain.
func (r *Registry) Encoder() *Encoder {
	return &Encoder{handlers: r.Handlers()}
}

// Encode renders v as a canonical fragment using the first matching
// handler.
func (e *Encoder) Encode(v any) (string, error) {
	if e.depth >= maxDepth {
		return "", newUnencodable("value nested deeper than %d levels, possibly cyclic", maxDepth)
	}
	e.depth++
	defer func() { e.depth-- }()

	for _, h := range e.handlers {
		s, ok, err := h.Encode(e, v)
		if err != nil {
			return "", err
		}
		if ok {
			return s, nil
		}
	}
	return "", newUnencodable("no handler for value of type %T", v)
}

// encodeAll renders each value in order.
func (e *Encoder) encodeAll(vals []any) ([]string, error) {
	out := make([]string, len(vals))
	for i, v := range vals {
		s, err := e.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// quote applies the encoder's string policy.
func (e *Encoder) quote(s string) (string, error) {
	if e.normalize {
		s = norm.NFC.String(s)
	}
	return QuoteString(s)
}

// RenderAsConfig renders name(params...) as a nested configuration, without
// needing a Config instance to copy from.
func (e *Encoder) RenderAsConfig(name string, params map[string]any) (string, error) {
	c := &Config{Name: name, Params: params}
	return c.render(e, renderOptions{})
}

// Encode renders v with the default registry.
func Encode(v any) (string, error) {
	return DefaultRegistry().Encoder().Encode(v)
}

// RenderAsConfig renders name(params...) with the default registry.
func RenderAsConfig(name string, params map[string]any) (string, error) {
	return DefaultRegistry().Encoder().RenderAsConfig(name, params)
}

// sortedEncoded encodes every value and returns the encodings sorted.
func sortedEncoded(e *Encoder, vals []any) ([]string, error) {
	out, err := e.encodeAll(vals)
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func joinWrapped(open string, parts []string, close string) string {
	return open + strings.Join(parts, ",") + close
}
