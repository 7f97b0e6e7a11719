package srp

import "time"

// timestampLayout is the exact wire form the server expects inside the
// proof message: three-letter English weekday and month, day of month
// without zero padding, clock fields zero padded, literal "UTC".
const timestampLayout = "Mon Jan 2 15:04:05 UTC 2006"

// FormatTimestamp renders an instant in the server's challenge-response
// timestamp format. The instant is normalised to UTC first; the "UTC"
// token is literal text regardless of the input's zone.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
