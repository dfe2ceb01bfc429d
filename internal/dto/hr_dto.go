package dto

type UpdateLeaveStatusRequest struct {
	EmployeeId string `json:"employee_id" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=Approved Rejected"`
	Reason     string `json:"reason" validate:"required,min=3"`
	StartDate  string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

type LeaveRecordResponse struct {
	RequestId    string `json:"request_id"`
	EmployeeId   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	LeaveType    string `json:"leave_type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	NumDays      int    `json:"num_days"`
	Status       string `json:"status"`
	RequestedOn  string `json:"requested_on"`
	DecidedOn    string `json:"decided_on,omitempty"`
	Comments     string `json:"comments,omitempty"`
}

type LeaveBalanceResponse struct {
	LeaveType   string `json:"leave_type"`
	Entitlement int    `json:"entitlement"`
	Used        int    `json:"used"`
	Pending     int    `json:"pending"`
	Remaining   int    `json:"remaining"`
}

type FeedbackTrendsResponse struct {
	Total             int      `json:"total"`
	Positive          int      `json:"positive"`
	Neutral           int      `json:"neutral"`
	Negative          int      `json:"negative"`
	RecentActionItems []string `json:"recent_action_items"`
	Summary           string   `json:"summary"`
}

type IngestDocumentRequest struct {
	DocumentId string `json:"document_id" validate:"required,max=200"`
	Source     string `json:"source" validate:"max=500"`
	Content    string `json:"content" validate:"required"`
}

type IngestDocumentResponse struct {
	DocumentId string `json:"document_id"`
	Queued     bool   `json:"queued"`
}

// PublishIngestDocumentMessage is the payload queued for the ingest consumer.
type PublishIngestDocumentMessage struct {
	DocumentId string `json:"document_id"`
	Source     string `json:"source"`
	Content    string `json:"content"`
}

type HealthResponse struct {
	Status        string            `json:"status"`
	Components    map[string]string `json:"components"`
	IndexedChunks int               `json:"indexed_chunks"`
	MissingConfig []string          `json:"missing_config,omitempty"`
}
