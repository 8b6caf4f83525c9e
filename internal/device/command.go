package device

import (
	"fmt"
	"strconv"

	"controlling_pod/internal/models"
)

// Command is a device instruction. The set is closed; values are wire codes.
type Command int

const (
	Hello             Command = 0
	SetTemp           Command = 1
	SetAlarm          Command = 2
	AlarmLeft         Command = 5
	AlarmRight        Command = 6
	SetSettings       Command = 8
	LeftTempDuration  Command = 9
	RightTempDuration Command = 10
	TempLevelLeft     Command = 11
	TempLevelRight    Command = 12
	Prime             Command = 13
	DeviceStatus      Command = 14
	AlarmClear        Command = 16
)

// DefaultArg is sent when a command takes no argument.
const DefaultArg = "empty"

var commandNames = map[Command]string{
	Hello:             "HELLO",
	SetTemp:           "SET_TEMP",
	SetAlarm:          "SET_ALARM",
	AlarmLeft:         "ALARM_LEFT",
	AlarmRight:        "ALARM_RIGHT",
	SetSettings:       "SET_SETTINGS",
	LeftTempDuration:  "LEFT_TEMP_DURATION",
	RightTempDuration: "RIGHT_TEMP_DURATION",
	TempLevelLeft:     "TEMP_LEVEL_LEFT",
	TempLevelRight:    "TEMP_LEVEL_RIGHT",
	Prime:             "PRIME",
	DeviceStatus:      "DEVICE_STATUS",
	AlarmClear:        "ALARM_CLEAR",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return "Command(" + strconv.Itoa(int(c)) + ")"
}

func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

// Code is the wire representation.
func (c Command) Code() string { return strconv.Itoa(int(c)) }

// Commands lists the closed set ordered by code.
func Commands() []Command {
	return []Command{
		Hello, SetTemp, SetAlarm, AlarmLeft, AlarmRight, SetSettings,
		LeftTempDuration, RightTempDuration, TempLevelLeft, TempLevelRight,
		Prime, DeviceStatus, AlarmClear,
	}
}

// ParseCommand accepts a command name such as "TEMP_LEVEL_LEFT".
func ParseCommand(name string) (Command, error) {
	for c, n := range commandNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

func TempDurationFor(side models.Side) Command {
	if side == models.SideRight {
		return RightTempDuration
	}
	return LeftTempDuration
}

func TempLevelFor(side models.Side) Command {
	if side == models.SideRight {
		return TempLevelRight
	}
	return TempLevelLeft
}

func AlarmFor(side models.Side) Command {
	if side == models.SideRight {
		return AlarmRight
	}
	return AlarmLeft
}
