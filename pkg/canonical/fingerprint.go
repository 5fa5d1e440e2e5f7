package canonical

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	gcal "google.golang.org/api/calendar/v3"
)

// fingerprintPayload fixes the serialization order of an event's observable
// content. The short field names are part of the stored digest format;
// changing them would re-patch every previously synced event.
type fingerprintPayload struct {
	Summary     string   `json:"s"`
	Description string   `json:"d"`
	Location    string   `json:"l"`
	Start       string   `json:"st"`
	End         string   `json:"et"`
	RRule       string   `json:"rr"`
	ExDates     []string `json:"ex"`
	RDates      []string `json:"rd"`
}

// Fingerprint digests the observable content of a canonical event. Two
// events with identical content always produce identical digests regardless
// of field order in the source feed; any content change changes the digest.
// It is used only for change detection, never for identity.
func Fingerprint(summary, description, location string, start, end *gcal.EventDateTime, rruleText string, exDates, rDates []string) string {
	if exDates == nil {
		exDates = []string{}
	}
	if rDates == nil {
		rDates = []string{}
	}
	startJSON, _ := json.Marshal(start)
	endJSON, _ := json.Marshal(end)

	payload, _ := json.Marshal(fingerprintPayload{
		Summary:     summary,
		Description: description,
		Location:    location,
		Start:       string(startJSON),
		End:         string(endJSON),
		RRule:       rruleText,
		ExDates:     exDates,
		RDates:      rDates,
	})
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])
}
