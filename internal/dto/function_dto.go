package dto

// AssistantRequest is the body of the ai-assistant function.
type AssistantRequest struct {
	Message  string      `json:"message"`
	Context  interface{} `json:"context,omitempty"`
	UserRole string      `json:"userRole"`
}

// AssistantResponse is returned when the assistant answered.
type AssistantResponse struct {
	Response    string `json:"response"`
	ContextUsed int    `json:"contextUsed"`
}

// GenerateRequest is the body of the free-ai-models function.
type GenerateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Context string `json:"context"`
}

// GenerateResponse echoes the model and context tag alongside the generation.
type GenerateResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	Context  string `json:"context"`
}

// FunctionError is the failure body shared by the function endpoints.
type FunctionError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}
