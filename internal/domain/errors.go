package domain

import "errors"

var (
	ErrChatStateNotFound   = errors.New("chat state not found")
	ErrSecretNotFound      = errors.New("secret not found")
	ErrVerifierUnavailable = errors.New("verifier unavailable")
	ErrInvalidPayload      = errors.New("invalid tool payload")
	ErrUnknownTool         = errors.New("unknown tool")
	ErrToolNotAllowed      = errors.New("tool not allowed")
	ErrEmptyMessage        = errors.New("empty message")
)
