// internal/genai/types.go
package genai

// Wire types for the generative-language REST protocol. Only the subset the
// pipeline exercises is modelled: text parts, function calls in, function
// responses out.

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type FunctionResponse struct {
	Name     string      `json:"name"`
	Response interface{} `json:"response"`
}

// FunctionDeclaration advertises one callable capability to the model.
type FunctionDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

type generateRequest struct {
	Contents []Content `json:"contents"`
	Tools    []Tool    `json:"tools,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// CapabilityCall is the model's structured request to invoke a declared
// capability instead of returning final text.
type CapabilityCall struct {
	Name string
	Args map[string]interface{}
}

// CapabilityResult feeds one invocation's outcome back into the session.
type CapabilityResult struct {
	Name     string
	Response interface{}
}

// Reply is one model turn: either final text, or one or more capability
// invocation requests (Calls non-empty).
type Reply struct {
	Text  string
	Calls []CapabilityCall
}
