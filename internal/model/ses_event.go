package model

// SESEvent is the decoded Message body of an SES event-publishing
// notification. Only the member matching EventType is populated.
type SESEvent struct {
	EventType string            `json:"eventType"`
	Mail      SESMail           `json:"mail"`
	Delivery  *SESDelivery      `json:"delivery"`
	Open      *SESOpen          `json:"open"`
	Click     *SESClick         `json:"click"`
	Bounce    *SESBounce        `json:"bounce"`
	Complaint *SESComplaint     `json:"complaint"`
	Reject    *SESReject        `json:"reject"`
	Failure   *SESRenderFailure `json:"failure"`
}

type SESMail struct {
	Timestamp   string   `json:"timestamp"`
	MessageID   string   `json:"messageId"`
	Source      string   `json:"source"`
	Destination []string `json:"destination"`
}

type SESDelivery struct {
	Timestamp  string   `json:"timestamp"`
	Recipients []string `json:"recipients"`
}

type SESOpen struct {
	Timestamp string `json:"timestamp"`
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent"`
}

type SESClick struct {
	Timestamp string `json:"timestamp"`
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent"`
	Link      string `json:"link"`
}

type SESBounce struct {
	Timestamp         string                `json:"timestamp"`
	BounceType        string                `json:"bounceType"`
	BounceSubType     string                `json:"bounceSubType"`
	BouncedRecipients []SESBouncedRecipient `json:"bouncedRecipients"`
}

type SESBouncedRecipient struct {
	EmailAddress   string `json:"emailAddress"`
	Action         string `json:"action"`
	Status         string `json:"status"`
	DiagnosticCode string `json:"diagnosticCode"`
}

type SESComplaint struct {
	Timestamp             string                   `json:"timestamp"`
	ComplaintFeedbackType string                   `json:"complaintFeedbackType"`
	ComplaintSubType      string                   `json:"complaintSubType"`
	ComplainedRecipients  []SESComplainedRecipient `json:"complainedRecipients"`
}

type SESComplainedRecipient struct {
	EmailAddress string `json:"emailAddress"`
}

type SESReject struct {
	Reason string `json:"reason"`
}

type SESRenderFailure struct {
	ErrorMessage string `json:"errorMessage"`
	TemplateName string `json:"templateName"`
}
