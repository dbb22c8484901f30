package handlers

// Error Codes
const (
	ErrCodeDatasetUnavailable  = "dataset_unavailable"
	ErrCodeInvalidDate         = "invalid_date"
	ErrCodeInvalidMonth        = "invalid_month"
	ErrCodeInvalidLayout       = "invalid_layout"
	ErrCodeDayNotFound         = "day_not_found"
	ErrCodeMissingRef          = "missing_ref"
	ErrCodeScriptureNotFound   = "scripture_not_found"
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeAuthRequired        = "authentication_required"
	ErrCodeInvalidState        = "invalid_oauth_state"
	ErrCodeTokenExchange       = "token_exchange_failed"
	ErrCodeCalendarFetchError  = "calendar_fetch_error"
	ErrCodeCalendarSelectError = "calendar_select_error"
	ErrCodePublishFailed       = "publish_failed"
	ErrCodeHistoryUnavailable  = "history_unavailable"
	ErrCodeUnknown             = "unknown_error"
)

// ErrorMessages maps error codes to user-friendly messages
var ErrorMessages = map[string]string{
	ErrCodeDatasetUnavailable:  "No calendar dataset has been loaded yet.",
	ErrCodeInvalidDate:         "Date must be formatted as YYYY-MM-DD.",
	ErrCodeInvalidMonth:        "Year and month must be numbers, with month between 1 and 12.",
	ErrCodeInvalidLayout:       "Layout must be either 'days' or 'weeks'.",
	ErrCodeDayNotFound:         "The dataset has no entry for this date.",
	ErrCodeMissingRef:          "The ref query parameter is required.",
	ErrCodeScriptureNotFound:   "The dataset has no text for this reference.",
	ErrCodeInvalidRequest:      "Invalid request body.",
	ErrCodeAuthRequired:        "Authentication required. Please connect your Google Calendar first.",
	ErrCodeInvalidState:        "OAuth state mismatch. Please start the sign-in again.",
	ErrCodeTokenExchange:       "Failed to complete Google sign-in. Please try again.",
	ErrCodeCalendarFetchError:  "Failed to fetch your calendars. Please try authenticating again.",
	ErrCodeCalendarSelectError: "Failed to save the calendar selection.",
	ErrCodePublishFailed:       "Failed to publish events. Please try again.",
	ErrCodeHistoryUnavailable:  "Failed to read the load history.",
	ErrCodeUnknown:             "An unknown error occurred.",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code string) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	return ErrorMessages[ErrCodeUnknown]
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
