package models

import "fmt"

// Side is one independently controlled half of the bed.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Sides lists both sides in lock order.
var Sides = []Side{SideLeft, SideRight}

func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideLeft, SideRight:
		return Side(s), nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

type DayOfWeek string

const (
	Sunday    DayOfWeek = "sunday"
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
)

// DaysOfWeek is ordered to match time.Weekday.
var DaysOfWeek = []DayOfWeek{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Index returns 0 for sunday through 6 for saturday, or -1 if d is unknown.
func (d DayOfWeek) Index() int {
	for i, day := range DaysOfWeek {
		if day == d {
			return i
		}
	}
	return -1
}

// DayOfWeekFromIndex wraps i into 0..6.
func DayOfWeekFromIndex(i int) DayOfWeek {
	i %= 7
	if i < 0 {
		i += 7
	}
	return DaysOfWeek[i]
}

const (
	PatternDouble = "double"
	PatternRise   = "rise"
)

type Alarm struct {
	Time               string `json:"time"`
	VibrationIntensity int    `json:"vibrationIntensity"`
	VibrationPattern   string `json:"vibrationPattern"` // double | rise
	Duration           int    `json:"duration"`         // seconds
	Enabled            bool   `json:"enabled"`
	AlarmTemperature   int    `json:"alarmTemperature"`
}

type Power struct {
	On            string `json:"on"`
	Off           string `json:"off"`
	OnTemperature int    `json:"onTemperature"`
	Enabled       bool   `json:"enabled"`
}

// DailySchedule is one side's plan for one weekday. Temperatures maps HH:mm to °F.
type DailySchedule struct {
	Temperatures map[string]int `json:"temperatures"`
	Alarm        Alarm          `json:"alarm"`
	Power        Power          `json:"power"`
}

type SideSchedule map[DayOfWeek]DailySchedule

type Schedules struct {
	Left  SideSchedule `json:"left"`
	Right SideSchedule `json:"right"`
}

func (s Schedules) For(side Side) SideSchedule {
	if side == SideRight {
		return s.Right
	}
	return s.Left
}

// DefaultDailySchedule mirrors what a freshly installed pod starts with.
func DefaultDailySchedule() DailySchedule {
	return DailySchedule{
		Temperatures: map[string]int{},
		Alarm: Alarm{
			Time:               "09:00",
			VibrationIntensity: 1,
			VibrationPattern:   PatternRise,
			Duration:           1,
			AlarmTemperature:   82,
		},
		Power: Power{
			On:            "21:00",
			Off:           "09:00",
			OnTemperature: 82,
		},
	}
}

// DefaultSchedules returns a full week of defaults for both sides.
func DefaultSchedules() Schedules {
	out := Schedules{Left: SideSchedule{}, Right: SideSchedule{}}
	for _, d := range DaysOfWeek {
		out.Left[d] = DefaultDailySchedule()
		out.Right[d] = DefaultDailySchedule()
	}
	return out
}
