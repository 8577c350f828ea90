package stats

import "fmt"

// Resolution identifies one of the pre-aggregated rollup tables.
type Resolution int

const (
	Minutely Resolution = iota
	Hourly
	Daily
)

type resolutionInfo struct {
	name   string
	table  string
	period int64 // seconds
}

var resolutions = map[Resolution]resolutionInfo{
	Minutely: {name: "minutely", table: "stat_minutely", period: 60},
	Hourly:   {name: "hourly", table: "stat_hourly", period: 3600},
	Daily:    {name: "daily", table: "stat_daily", period: 86400},
}

// resolutionByDays lists, finest first, the longest window each resolution serves.
// The last entry catches everything longer.
var resolutionByDays = []struct {
	maxDays int
	res     Resolution
}{
	{maxDays: 1, res: Minutely},
	{maxDays: 30, res: Hourly},
	{maxDays: MaxDays, res: Daily},
}

// Resolutions returns every known resolution, finest first.
func Resolutions() []Resolution {
	return []Resolution{Minutely, Hourly, Daily}
}

// ResolutionForDays picks the coarsest table that still resolves a window of days.
func ResolutionForDays(days int) Resolution {
	for _, r := range resolutionByDays {
		if days <= r.maxDays {
			return r.res
		}
	}
	return resolutionByDays[len(resolutionByDays)-1].res
}

func (r Resolution) info() resolutionInfo {
	s, ok := resolutions[r]
	if !ok {
		panic(fmt.Sprintf("stats: unknown resolution %d", int(r)))
	}
	return s
}

// Table is the rollup table backing the resolution.
func (r Resolution) Table() string { return r.info().table }

// Period is the row period length in seconds.
func (r Resolution) Period() int64 { return r.info().period }

func (r Resolution) String() string {
	if s, ok := resolutions[r]; ok {
		return s.name
	}
	return fmt.Sprintf("resolution(%d)", int(r))
}

// Align floors a unix timestamp to the resolution's period boundary.
func (r Resolution) Align(ts int64) int64 {
	p := r.Period()
	return floorDiv(ts, p) * p
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
