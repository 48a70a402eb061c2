package models

import "fmt"

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// MarshalJSON renders the same flat body config.ErrorStatus writes
func (e ErrorMessageResponse) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"response": "%s, %s"}`, e.Response.Message, e.Response.Error)), nil
}
