package trivia

import "fmt"

// FetchError reports a transport failure reaching the provider.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("trivia fetch: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ProviderError reports a provider answer that is not a success: a non-zero
// response code or a malformed payload (Code -1).
type ProviderError struct {
	Code int
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("trivia provider: %v", e.Err)
	}
	return fmt.Sprintf("trivia provider: response code %d (%s)", e.Code, CodeText(e.Code))
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// CodeText describes a provider response code.
func CodeText(code int) string {
	switch code {
	case CodeSuccess:
		return "success"
	case CodeNoResults:
		return "not enough questions for the query"
	case CodeInvalidParameter:
		return "invalid parameter"
	case CodeTokenNotFound:
		return "session token not found"
	case CodeTokenEmpty:
		return "session token exhausted"
	case CodeRateLimit:
		return "rate limited"
	default:
		return "unknown"
	}
}
