package feed

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ajaxPath is the DataTables endpoint below the panel base URL.
const ajaxPath = "/client/res/data_smscdr.php"

// windowQuery builds the DataTables server-side paging parameters for
// one top-N window: today's date range, first page, newest first. The
// "_" parameter is the cache buster the panel's own frontend sends.
func windowQuery(size int, now time.Time) url.Values {
	today := now.Format("2006-01-02")
	return url.Values{
		"fdate1":         {today + " 00:00:00"},
		"fdate2":         {today + " 23:59:59"},
		"frange":         {""},
		"fnum":           {""},
		"fcli":           {""},
		"fg":             {"0"},
		"sEcho":          {"1"},
		"iColumns":       {"7"},
		"iDisplayStart":  {"0"},
		"iDisplayLength": {strconv.Itoa(size)},
		"iSortCol_0":     {"0"},
		"sSortDir_0":     {"desc"},
		"_":              {fmt.Sprintf("%d", now.UnixMilli())},
	}
}
