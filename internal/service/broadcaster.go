package service

const (
	EventResponseSubmitted = "response_submitted"
	EventReportGenerated   = "report_generated"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToPurchase(publicID string, msgType string, payload interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToPurchase(string, string, interface{}) {}
