package formatting

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"datamart/internal/backend"
	"datamart/internal/session"
	dmstrings "datamart/pkg/strings"
)

// PrettyJSON formats any value as indented JSON for human-readable display.
// It falls back to fmt.Sprintf when v cannot be marshaled.
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// identityDocument is the machine-readable form of an Identity.
type identityDocument struct {
	Server string               `json:"server"`
	Status string               `json:"status"`
	User   *backend.UserProfile `json:"user,omitempty"`
	Error  string               `json:"error,omitempty"`
}

func newIdentityDocument(id Identity) identityDocument {
	doc := identityDocument{Server: id.Server, Status: id.Snapshot.Status.String()}
	if id.Snapshot.Status == session.StatusAuthenticated {
		doc.User = id.Snapshot.User
	}
	if id.Snapshot.Err != nil {
		doc.Error = id.Snapshot.Err.Error()
	}
	return doc
}

// formatTimestamp renders a time in the local zone, or "-" when unset.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatOptionalTimestamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTimestamp(*t)
}

// formatValue renders a data point value compactly.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return dmstrings.Truncate(val, dmstrings.CellMaxLen)
	case float64:
		return strconv.FormatFloat(val, 'g', 6, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return dmstrings.Truncate(string(b), dmstrings.CellMaxLen)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
