package api

// Body-level results of issue operations. Clients match on these strings.
const (
	msgRequiredFieldsMissing = "required field(s) missing"
	msgMissingID             = "missing _id"
	msgNoUpdateFields        = "no update field(s) sent"
	msgCouldNotUpdate        = "could not update"
	msgCouldNotDelete        = "could not delete"
	msgUpdated               = "successfully updated"
	msgDeleted               = "successfully deleted"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	issueHandler  issueHandler
	healthHandler healthHandler
}

// IssueResult is the body of every update and delete response and of a
// rejected create. Exactly one of Result and Error is set.
type IssueResult struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	ID     string `json:"_id,omitempty"`
}

// ErrorResponse represents a transport-level error (malformed body, store
// outage)
type ErrorResponse struct {
	Error   string `json:"error" example:"store unavailable"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"json"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

// HealthResponse reports process uptime and store reachability
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Store  string `json:"store" example:"ok"`
	Uptime string `json:"uptime" example:"1h2m3s"`
}
