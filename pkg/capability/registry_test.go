// pkg/capability/registry_test.go
package capability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideviz/internal/genai"
)

func TestRegistry_DeclarationsKeepRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zulu", "alpha", "mike"} {
		reg.Register(Capability{
			Declaration: genai.FunctionDeclaration{Name: name},
			Invoke:      func(context.Context, map[string]interface{}) (interface{}, error) { return nil, nil },
		})
	}

	decls := reg.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, "zulu", decls[0].Name)
	assert.Equal(t, "alpha", decls[1].Name)
	assert.Equal(t, "mike", decls[2].Name)
}

func TestRegistry_Invoke(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Capability{
		Declaration: genai.FunctionDeclaration{Name: "echo"},
		Invoke: func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			return args["value"], nil
		},
	})

	got, err := reg.Invoke(context.Background(), genai.CapabilityCall{
		Name: "echo",
		Args: map[string]interface{}{"value": "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = reg.Invoke(context.Background(), genai.CapabilityCall{Name: "missing"})
	assert.Error(t, err)
}

func TestRegistry_ReRegisterReplaces(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Capability{
		Declaration: genai.FunctionDeclaration{Name: "echo", Description: "first"},
		Invoke:      func(context.Context, map[string]interface{}) (interface{}, error) { return "first", nil },
	})
	reg.Register(Capability{
		Declaration: genai.FunctionDeclaration{Name: "echo", Description: "second"},
		Invoke:      func(context.Context, map[string]interface{}) (interface{}, error) { return "second", nil },
	})

	decls := reg.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, "second", decls[0].Description)

	got, err := reg.Invoke(context.Background(), genai.CapabilityCall{Name: "echo"})
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}
