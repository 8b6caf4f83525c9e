package models

import "time"

type SideStatus struct {
	CurrentTemperatureLevel int  `json:"currentTemperatureLevel"`
	CurrentTemperatureF     int  `json:"currentTemperatureF"`
	TargetTemperatureF      int  `json:"targetTemperatureF"`
	SecondsRemaining        int  `json:"secondsRemaining"`
	IsOn                    bool `json:"isOn"`
	IsAlarmVibrating        bool `json:"isAlarmVibrating"`
}

type DeviceSettings struct {
	Version       int `json:"v"`
	GainLeft      int `json:"gainLeft"`
	GainRight     int `json:"gainRight"`
	LEDBrightness int `json:"ledBrightness"`
}

// DeviceState is the last state confirmed by the device itself.
type DeviceState struct {
	Left         SideStatus     `json:"left"`
	Right        SideStatus     `json:"right"`
	WaterLevel   string         `json:"waterLevel"`
	IsPriming    bool           `json:"isPriming"`
	Settings     DeviceSettings `json:"settings"`
	CoverVersion string         `json:"coverVersion"`
	HubVersion   string         `json:"hubVersion"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (d DeviceState) For(side Side) SideStatus {
	if side == SideRight {
		return d.Right
	}
	return d.Left
}

// SideUpdate carries only the fields a caller wants changed; nil means untouched.
type SideUpdate struct {
	IsOn               *bool `json:"isOn,omitempty"`
	TargetTemperatureF *int  `json:"targetTemperatureF,omitempty"`
	IsAlarmVibrating   *bool `json:"isAlarmVibrating,omitempty"`
}

func (u *SideUpdate) Empty() bool {
	return u == nil || (u.IsOn == nil && u.TargetTemperatureF == nil && u.IsAlarmVibrating == nil)
}

type PartialDeviceState struct {
	Left      *SideUpdate `json:"left,omitempty"`
	Right     *SideUpdate `json:"right,omitempty"`
	IsPriming *bool       `json:"isPriming,omitempty"`
}

func (p PartialDeviceState) For(side Side) *SideUpdate {
	if side == SideRight {
		return p.Right
	}
	return p.Left
}

// ForSide builds a partial that touches a single side.
func ForSide(side Side, u SideUpdate) PartialDeviceState {
	if side == SideRight {
		return PartialDeviceState{Right: &u}
	}
	return PartialDeviceState{Left: &u}
}

func Bool(v bool) *bool { return &v }
func Int(v int) *int    { return &v }

// Target temperature bounds in °F accepted by the pod.
const (
	MinTemperatureF = 55
	MaxTemperatureF = 110
)
