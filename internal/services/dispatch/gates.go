package dispatch

import (
	"time"

	"github.com/BearBump/ShipReport/internal/models"
)

// MaxScanLagDays is the largest accepted gap between label creation and the
// first scan. A larger gap means the scan belongs to an older shipment.
const MaxScanLagDays = 2

// DispatchDate applies the inclusion gates to one record and returns the date
// the parcel really left.
func DispatchDate(rec models.TrackingRecord) (time.Time, bool) {
	if rec.StatusCode == models.TrackingStatusAwaitingReceipt {
		return time.Time{}, false
	}
	if rec.DateScan == "" {
		return time.Time{}, false
	}

	scan, scanOK := ParseCarrierDate(rec.DateScan)
	created, createdOK := ParseCarrierDate(rec.DateCreated)
	switch {
	case scanOK && createdOK:
		if daysBetween(created, scan) > MaxScanLagDays {
			return time.Time{}, false
		}
		return created, true
	case scanOK:
		return scan, true
	default:
		return time.Time{}, false
	}
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
