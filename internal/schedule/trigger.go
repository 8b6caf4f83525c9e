package schedule

import (
	"fmt"
	"strings"
	"time"

	"controlling_pod/internal/models"
)

type Kind string

const (
	KindPowerOn     Kind = "power-on"
	KindPowerOff    Kind = "power-off"
	KindTemperature Kind = "temperature-adjust"
	KindPrime       Kind = "prime"
)

// podSide labels triggers that act on the whole pod rather than one side.
const podSide = "pod"

type Payload struct {
	OnTemperature int `json:"onTemperature,omitempty"`
	Temperature   int `json:"temperature,omitempty"`
}

// Trigger is one recurring weekly action. Day is the weekday the user wrote it
// under; Weekday is when it actually fires after the day-boundary rule.
type Trigger struct {
	Key      string           `json:"key"`
	Kind     Kind             `json:"kind"`
	Side     models.Side      `json:"side,omitempty"`
	Day      models.DayOfWeek `json:"day"`
	Weekday  time.Weekday     `json:"weekday"`
	Hour     int              `json:"hour"`
	Minute   int              `json:"minute"`
	Time     string           `json:"time"`
	TimeZone string           `json:"timeZone"`
	Location *time.Location   `json:"-"`
	Payload  Payload          `json:"payload"`
}

func (t Trigger) String() string { return t.Key }

func buildKey(side models.Side, day models.DayOfWeek, hhmm string, kind Kind, p Payload) string {
	label := string(side)
	if label == "" {
		label = podSide
	}
	parts := []string{label, string(day), hhmm, string(kind)}
	switch kind {
	case KindPowerOn:
		parts = append(parts, fmt.Sprint(p.OnTemperature))
	case KindTemperature:
		parts = append(parts, fmt.Sprint(p.Temperature))
	}
	return strings.Join(parts, "-")
}

// Keys returns the trigger keys in input order.
func Keys(ts []Trigger) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Key
	}
	return out
}
