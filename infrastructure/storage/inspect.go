package storage

import (
	"fmt"
	"strings"

	"github.com/mama165/sdk-go/database"
)

// InspectMapper renders directory records for the Badger inspectors.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	row.Type = strings.ToUpper(strings.SplitN(key, ":", 2)[0])

	switch {
	case strings.HasPrefix(key, blockPrefix):
		row.Detail = "since " + string(val)
	case strings.HasPrefix(key, userPrefix):
		user, err := unmarshalUser(val)
		if err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Detail = fmt.Sprintf("%s [%s]", user.Username, strings.Join(user.Roles, ","))
	case strings.HasPrefix(key, reportPrefix):
		report, err := unmarshalReport(val)
		if err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Detail = fmt.Sprintf("%s reported %s: %s", report.Reporter, report.Reported, report.Reason)
	}
	return row
}
