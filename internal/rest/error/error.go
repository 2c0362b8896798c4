package error

// ApiError is the JSON body returned for failed requests.
type ApiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
