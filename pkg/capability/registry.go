// pkg/capability/registry.go
package capability

import (
	"context"
	"fmt"

	"rideviz/internal/genai"
)

// Invoker executes one capability invocation with the model-supplied args.
type Invoker func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Capability pairs a declaration the model sees with the code that backs it.
type Capability struct {
	Declaration genai.FunctionDeclaration
	Invoke      Invoker
}

// Registry holds the capabilities a model session may invoke.
type Registry struct {
	caps  map[string]Capability
	order []string
}

func NewRegistry() *Registry {
	return &Registry{caps: make(map[string]Capability)}
}

// Register adds a capability; re-registering a name replaces it.
func (r *Registry) Register(c Capability) {
	if _, exists := r.caps[c.Declaration.Name]; !exists {
		r.order = append(r.order, c.Declaration.Name)
	}
	r.caps[c.Declaration.Name] = c
}

// Declarations returns the function declarations in registration order.
func (r *Registry) Declarations() []genai.FunctionDeclaration {
	decls := make([]genai.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.caps[name].Declaration)
	}
	return decls
}

// Invoke dispatches one model invocation request.
func (r *Registry) Invoke(ctx context.Context, call genai.CapabilityCall) (interface{}, error) {
	c, ok := r.caps[call.Name]
	if !ok {
		return nil, fmt.Errorf("unknown capability %q", call.Name)
	}
	return c.Invoke(ctx, call.Args)
}
