package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"controlling_pod/internal/models"
)

// ErrConfigInvalid marks a schedule or settings value that can never be scheduled.
var ErrConfigInvalid = errors.New("config invalid")

const (
	MinTemperatureF = models.MinTemperatureF
	MaxTemperatureF = models.MaxTemperatureF
	minVibration    = 1
	maxVibration    = 100
	minAlarmSeconds = 0
	maxAlarmSeconds = 180
)

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ParseHHMM splits a validated "HH:mm" string.
func ParseHHMM(s string) (hour, minute int, err error) {
	m := hhmmRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: time %q is not HH:mm", ErrConfigInvalid, s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfigInvalid, fmt.Sprintf(format, args...))
}

func checkTemperature(field string, v int) error {
	if v < MinTemperatureF || v > MaxTemperatureF {
		return invalid("%s %d outside [%d,%d]", field, v, MinTemperatureF, MaxTemperatureF)
	}
	return nil
}

func checkTime(field, v string) error {
	if _, _, err := ParseHHMM(v); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// ValidateTemperature reports whether v is an acceptable target in °F.
func ValidateTemperature(v int) error {
	return checkTemperature("temperature", v)
}

// ValidateDaily checks one day of one side. Alarm and power blocks are checked
// when enabled or when any of their times are set.
func ValidateDaily(ds models.DailySchedule) error {
	var errs []error
	for at, temp := range ds.Temperatures {
		if err := checkTime("temperatures", at); err != nil {
			errs = append(errs, err)
		}
		if err := checkTemperature("temperatures["+at+"]", temp); err != nil {
			errs = append(errs, err)
		}
	}

	a := ds.Alarm
	if a.Enabled || a.Time != "" {
		if err := checkTime("alarm.time", a.Time); err != nil {
			errs = append(errs, err)
		}
		if a.VibrationIntensity < minVibration || a.VibrationIntensity > maxVibration {
			errs = append(errs, invalid("alarm.vibrationIntensity %d outside [%d,%d]", a.VibrationIntensity, minVibration, maxVibration))
		}
		if a.VibrationPattern != models.PatternDouble && a.VibrationPattern != models.PatternRise {
			errs = append(errs, invalid("alarm.vibrationPattern %q", a.VibrationPattern))
		}
		if a.Duration < minAlarmSeconds || a.Duration > maxAlarmSeconds {
			errs = append(errs, invalid("alarm.duration %d outside [%d,%d]", a.Duration, minAlarmSeconds, maxAlarmSeconds))
		}
		if err := checkTemperature("alarm.alarmTemperature", a.AlarmTemperature); err != nil {
			errs = append(errs, err)
		}
	}

	p := ds.Power
	if p.Enabled || p.On != "" || p.Off != "" {
		if err := checkTime("power.on", p.On); err != nil {
			errs = append(errs, err)
		}
		if err := checkTime("power.off", p.Off); err != nil {
			errs = append(errs, err)
		}
		if err := checkTemperature("power.onTemperature", p.OnTemperature); err != nil {
			errs = append(errs, err)
		}
		// 0h and 24h are indistinguishable here.
		if p.Enabled && p.On == p.Off {
			errs = append(errs, invalid("power window %s-%s has no duration", p.On, p.Off))
		}
	}
	return errors.Join(errs...)
}

// ValidateSide checks every day of a side schedule.
func ValidateSide(side models.Side, ss models.SideSchedule) error {
	var errs []error
	for day, ds := range ss {
		if day.Index() < 0 {
			errs = append(errs, invalid("%s: unknown day %q", side, day))
			continue
		}
		if err := ValidateDaily(ds); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", side, day, err))
		}
	}
	return errors.Join(errs...)
}
