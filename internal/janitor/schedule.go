package janitor

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field cron expressions (minute, hour, dom,
// month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func parseSchedule(expr string) (cron.Schedule, error) {
	return cronParser.Parse(expr)
}

// nextSweepDuration returns the time until the schedule next fires,
// clamped to at least one second so a just-fired timer cannot spin.
func nextSweepDuration(sched cron.Schedule) time.Duration {
	d := time.Until(sched.Next(time.Now()))
	if d < time.Second {
		return time.Second
	}
	return d
}
