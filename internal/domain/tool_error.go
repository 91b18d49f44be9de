package domain

import "fmt"

type ToolErrorCode string

const (
	ToolErrorNotFound    ToolErrorCode = "NOT_FOUND"
	ToolErrorAmbiguous   ToolErrorCode = "AMBIGUOUS"
	ToolErrorValidation  ToolErrorCode = "VALIDATION_ERROR"
	ToolErrorConflict    ToolErrorCode = "CONFLICT"
	ToolErrorBackend     ToolErrorCode = "BACKEND_ERROR"
	ToolErrorUnknownTool ToolErrorCode = "UNKNOWN_TOOL"
)

type ToolError struct {
	Code    ToolErrorCode  `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

var _ error = (*ToolError)(nil)

func NewToolError(code ToolErrorCode, message string) *ToolError {
	return &ToolError{Code: code, Message: message}
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ToolError) WithDetails(details map[string]any) *ToolError {
	cloned := *e
	cloned.Details = CloneMap(details)
	return &cloned
}

// KnownCode normalizes unexpected codes to BACKEND_ERROR.
func KnownCode(raw string) ToolErrorCode {
	switch code := ToolErrorCode(raw); code {
	case ToolErrorNotFound, ToolErrorAmbiguous, ToolErrorValidation, ToolErrorConflict, ToolErrorBackend, ToolErrorUnknownTool:
		return code
	default:
		return ToolErrorBackend
	}
}
