package model

// Status is the state of a single submission attempt.
type Status int

const (
	// StatusPending is shown as soon as a submission starts.
	StatusPending Status = iota

	// StatusSuccess means the server accepted the submission.
	StatusSuccess

	// StatusRejected means the HTTP request succeeded but the server's
	// acceptance flag was false.
	StatusRejected

	// StatusServerError means the server answered with a non-ok HTTP status.
	StatusServerError

	// StatusNetworkError means the request never completed, or the response
	// could not be read.
	StatusNetworkError
)

// Display colors used by the status element.
const (
	ColorBlack   = "black"
	ColorGreen   = "green"
	ColorCrimson = "crimson"
)

// Status messages.
const (
	MessageSubmitting = "Submitting..."
	MessageSaved      = "Thanks — submission saved."
	MessageRejected   = "Server rejected submission."
	errorsPrefix      = "Errors: "
	failedPrefix      = "Submission failed: "
	networkPrefix     = "Network error: "
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusRejected:
		return "rejected"
	case StatusServerError:
		return "server-error"
	case StatusNetworkError:
		return "network-error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the status ends a submission attempt.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Failed reports whether the status is one of the failure outcomes.
func (s Status) Failed() bool {
	switch s {
	case StatusRejected, StatusServerError, StatusNetworkError:
		return true
	default:
		return false
	}
}

// Outcome is the user-visible result of a submission attempt.
type Outcome struct {
	// Status is the outcome kind.
	Status Status `json:"status"`

	// Message is the status text shown to the user.
	Message string `json:"message"`
}

// Color returns the display color for the outcome.
func (o Outcome) Color() string {
	switch o.Status {
	case StatusPending:
		return ColorBlack
	case StatusSuccess:
		return ColorGreen
	default:
		return ColorCrimson
	}
}

// Pending returns the outcome shown while a submission is in flight.
func Pending() Outcome {
	return Outcome{Status: StatusPending, Message: MessageSubmitting}
}

// Success returns the outcome for an accepted submission.
func Success() Outcome {
	return Outcome{Status: StatusSuccess, Message: MessageSaved}
}

// Rejected returns the outcome for a submission refused by the application.
func Rejected() Outcome {
	return Outcome{Status: StatusRejected, Message: MessageRejected}
}

// ValidationErrors returns the outcome for a non-ok response that carried a
// structured errors payload. errorsJSON is shown verbatim.
func ValidationErrors(errorsJSON string) Outcome {
	return Outcome{Status: StatusServerError, Message: errorsPrefix + errorsJSON}
}

// Failed returns the outcome for a non-ok response without structured errors.
func Failed(statusText string) Outcome {
	return Outcome{Status: StatusServerError, Message: failedPrefix + statusText}
}

// NetworkError returns the outcome for a transport or parse failure.
func NetworkError(message string) Outcome {
	return Outcome{Status: StatusNetworkError, Message: networkPrefix + message}
}

// Attempt is the outcome of submitting the form of one page.
type Attempt struct {
	Page    string  `json:"page"`
	Outcome Outcome `json:"outcome"`
}
