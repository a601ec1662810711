package models

// Carrier status codes with special meaning.
const (
	// TrackingStatusAwaitingReceipt means the waybill exists but the parcel was not handed over yet.
	TrackingStatusAwaitingReceipt = "1"
)

// TrackingRecord is one document from the carrier's status lookup. Dates are raw carrier strings.
type TrackingRecord struct {
	Number      string
	StatusCode  string
	DateScan    string
	DateCreated string
}
