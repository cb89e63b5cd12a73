package ports

import "net/http"

// HTTPClient is the subset of *http.Client the provider adapters call.
// Tests substitute a recording double.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
