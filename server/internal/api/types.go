package api

// errorResponse is the JSON body of every non-2xx reply.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

const (
	msgBotNotFound      = "Bot not found"
	msgNotFound         = "Not Found"
	msgMethodNotAllowed = "method not allowed"
	msgInternal         = "Internal Server Error"
)
