package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"controlling_pod/internal/models"
)

// AdjustedWeekday applies the day-boundary rule: an off time earlier on the
// clock than its on time belongs to the following day.
func AdjustedWeekday(day models.DayOfWeek, on, off string) models.DayOfWeek {
	if off < on {
		return models.DayOfWeekFromIndex(day.Index() + 1)
	}
	return day
}

// LoadTimeZone resolves the configured zone. A nil zone returns (nil, nil).
func LoadTimeZone(tz *string) (*time.Location, error) {
	if tz == nil {
		return nil, nil
	}
	if *tz == "" {
		return nil, invalid("empty timezone")
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return nil, invalid("timezone %q: %v", *tz, err)
	}
	return loc, nil
}

// Compile turns schedules and settings into the full set of recurring triggers.
// A side that fails validation contributes no triggers; its error is joined into
// the returned error while the other side compiles normally.
func Compile(schedules models.Schedules, settings models.Settings) ([]Trigger, error) {
	loc, err := LoadTimeZone(settings.TimeZone)
	if err != nil || loc == nil {
		return nil, err
	}
	tz := *settings.TimeZone

	var (
		out  []Trigger
		errs []error
	)
	for _, side := range models.Sides {
		if settings.Away(side) {
			continue
		}
		ss := schedules.For(side)
		if err := ValidateSide(side, ss); err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, compileSide(side, ss, tz, loc)...)
	}

	prime, err := compilePrime(settings, tz, loc)
	if err != nil {
		errs = append(errs, err)
	}
	out = append(out, prime...)

	sortTriggers(out)
	return out, errors.Join(errs...)
}

func compileSide(side models.Side, ss models.SideSchedule, tz string, loc *time.Location) []Trigger {
	var out []Trigger
	for _, day := range models.DaysOfWeek {
		ds, ok := ss[day]
		if !ok {
			continue
		}
		if ds.Power.Enabled {
			out = append(out,
				newTrigger(side, day, day, ds.Power.On, KindPowerOn, Payload{OnTemperature: ds.Power.OnTemperature}, tz, loc),
				newTrigger(side, day, AdjustedWeekday(day, ds.Power.On, ds.Power.Off), ds.Power.Off, KindPowerOff, Payload{}, tz, loc),
			)
		}
		for at, temp := range ds.Temperatures {
			out = append(out, newTrigger(side, day, day, at, KindTemperature, Payload{Temperature: temp}, tz, loc))
		}
	}
	return out
}

func compilePrime(settings models.Settings, tz string, loc *time.Location) ([]Trigger, error) {
	p := settings.PrimePodDaily
	if !p.Enabled || (settings.Left.AwayMode && settings.Right.AwayMode) {
		return nil, nil
	}
	if err := checkTime("primePodDaily.time", p.Time); err != nil {
		return nil, err
	}
	out := make([]Trigger, 0, len(models.DaysOfWeek))
	for _, day := range models.DaysOfWeek {
		out = append(out, newTrigger("", day, day, p.Time, KindPrime, Payload{}, tz, loc))
	}
	return out, nil
}

func newTrigger(side models.Side, day, fires models.DayOfWeek, hhmm string, kind Kind, p Payload, tz string, loc *time.Location) Trigger {
	// hhmm was validated before we got here.
	h, m, _ := ParseHHMM(hhmm)
	return Trigger{
		Key:      buildKey(side, day, hhmm, kind, p),
		Kind:     kind,
		Side:     side,
		Day:      day,
		Weekday:  time.Weekday(fires.Index()),
		Hour:     h,
		Minute:   m,
		Time:     hhmm,
		TimeZone: tz,
		Location: loc,
		Payload:  p,
	}
}

func sortTriggers(ts []Trigger) {
	sort.Slice(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if a.Weekday != b.Weekday {
			return a.Weekday < b.Weekday
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.Key < b.Key
	})
}

// Describe renders a trigger for logs and job listings.
func Describe(t Trigger) string {
	switch t.Kind {
	case KindPowerOn:
		return fmt.Sprintf("power on %s at %d°F", t.Side, t.Payload.OnTemperature)
	case KindPowerOff:
		return fmt.Sprintf("power off %s", t.Side)
	case KindTemperature:
		return fmt.Sprintf("set %s to %d°F", t.Side, t.Payload.Temperature)
	case KindPrime:
		return "prime pod"
	}
	return string(t.Kind)
}
