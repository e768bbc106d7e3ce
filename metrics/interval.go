package metrics

import (
	"time"

	"github.com/scality/utapi/schema"
)

// currentInterval is the interval containing wall-clock now at ingest time;
// writes always target this interval regardless of any timestamp the event
// itself carries.
func currentInterval() int64 {
	return schema.CurrentInterval(time.Now())
}
