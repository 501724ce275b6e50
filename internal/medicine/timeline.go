package medicine

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type slotRef struct {
	planID uuid.UUID
	time   string
}

// BuildTimeline expands the given plans into per-dose events for the day and
// reconciles them against recorded logs. Plans are expected to be the active
// plans overlapping the day; the recurrence predicate is applied here so only
// plans actually due on the day contribute events.
//
// For each (plan, reminder time) pair the logged status wins when a log
// exists; otherwise the event is "missed" when its scheduled instant is
// strictly before now, "upcoming" otherwise. Events are sorted ascending by
// scheduled instant (stable, so ties keep plan order then reminder-time
// order). The returned summary always carries all four statuses and sums to
// the number of events.
func BuildTimeline(plans []Plan, logs []Log, day DayRange, now time.Time) Timeline {
	bySlot := make(map[slotRef]*Log, len(logs))
	for i := range logs {
		l := &logs[i]
		bySlot[slotRef{planID: l.PlanID, time: l.ScheduledTime}] = l
	}

	events := make([]Event, 0, len(plans))

	for _, p := range plans {
		if !DueOn(p, day.Start) {
			continue
		}

		for _, rt := range p.ReminderTimes {
			hour, minute, ok := splitReminderTime(rt)
			if !ok {
				continue
			}

			scheduledAt := time.Date(
				day.Start.Year(), day.Start.Month(), day.Start.Day(),
				hour, minute, 0, 0, day.Start.Location(),
			)

			ev := Event{
				PlanID:       p.ID,
				Name:         p.Name,
				Dosage:       p.Dosage,
				Form:         p.Form,
				Frequency:    p.Frequency,
				ReminderTime: rt,
				ScheduledAt:  scheduledAt,
				Instructions: p.Instructions,
				DoctorNotes:  p.DoctorNotes,
			}

			if l, logged := bySlot[slotRef{planID: p.ID, time: rt}]; logged {
				ev.Status = EventStatus(l.Status)
				id := l.ID
				ev.LogID = &id
			} else if scheduledAt.Before(now) {
				ev.Status = EventMissed
			} else {
				ev.Status = EventUpcoming
			}

			events = append(events, ev)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ScheduledAt.Before(events[j].ScheduledAt)
	})

	var sum Summary
	for _, ev := range events {
		switch ev.Status {
		case EventTaken:
			sum.Taken++
		case EventSkipped:
			sum.Skipped++
		case EventMissed:
			sum.Missed++
		case EventUpcoming:
			sum.Upcoming++
		}
	}

	return Timeline{Summary: sum, Timeline: events}
}
