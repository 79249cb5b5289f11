package dto

// Response is the envelope of every API response. Result and RecordsTotal
// are omitted on errors; Code is set only on errors.
type Response struct {
	Message      string             `json:"message"`
	Result       any                `json:"result,omitempty"`
	RecordsTotal *int64             `json:"recordsTotal,omitempty"`
	Code         string             `json:"code,omitempty"`
	RequestID    string             `json:"request_id,omitempty"`
	Details      []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one rejected field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(message string, result any) Response {
	return Response{
		Message: message,
		Result:  result,
	}
}

// NewListResponse creates a success response carrying one page of a listing
func NewListResponse(result any, total int64) Response {
	return Response{
		Message:      "OK",
		Result:       result,
		RecordsTotal: &total,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Message:   message,
		Code:      code,
		RequestID: requestID,
	}
}

// NewValidationErrorResponse creates a 400 response listing the rejected fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	return Response{
		Message:   message,
		Code:      ErrCodeValidation,
		RequestID: requestID,
		Details:   details,
	}
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
