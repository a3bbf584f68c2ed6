package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"toddlerclock/internal/schedule"
)

const productID = "-//toddlerclock//daily schedule//EN"

// uidNamespace scopes the name-based UUIDs of exported events.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("toddlerclock"))

// Export renders the resolved day as an iCalendar feed: one VEVENT per span,
// anchored on day in loc and repeating daily. UIDs are derived from the
// span, so re-exporting an unchanged schedule yields the same UIDs and
// calendar apps update events instead of duplicating them.
func Export(spans []schedule.Span, day time.Time, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	daily := (&rrule.ROption{Freq: rrule.DAILY}).RRuleString()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("Toddler clock")

	stamp := time.Now().UTC()
	for _, sp := range spans {
		if sp.Start < 0 || sp.Stop > schedule.MinutesInDay || sp.Start >= sp.Stop {
			return "", fmt.Errorf("ics: bad span [%d, %d)", sp.Start, sp.Stop)
		}
		if sp.Description == "" {
			return "", errors.New("ics: span without description")
		}

		ev := cal.AddEvent(SpanUID(sp))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(midnight.Add(time.Duration(sp.Start) * time.Minute))
		ev.SetEndAt(midnight.Add(time.Duration(sp.Stop) * time.Minute))
		ev.SetSummary(sp.Description)
		ev.AddRrule(daily)
	}

	return cal.Serialize(), nil
}

// SpanUID is the stable UID of a span's VEVENT.
func SpanUID(sp schedule.Span) string {
	key := fmt.Sprintf("%d-%d-%s", sp.Start, sp.Stop, sp.Description)
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@toddlerclock"
}
