package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		panic(err)
	}
}

// force timezone to be Beijing time because the site renders every
// date (publish dates, mark dates, release dates) in it, servers
// deployed elsewhere would otherwise drift when manipulating dates
// based on <time.Time>.Year()/Month()/Day()/Hour()/...
func Now() time.Time {
	return time.Now().In(Location)
}
