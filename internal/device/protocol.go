package device

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"controlling_pod/internal/models"
)

var (
	// ErrChannelUnavailable means there was no usable connection at call time.
	ErrChannelUnavailable = errors.New("device channel unavailable")
	// ErrProtocol means the device answered with something we cannot use.
	ErrProtocol = errors.New("device protocol error")
)

// maxFrameBytes bounds a single response frame.
const maxFrameBytes = 64 << 10

// Frames are newline separated fields terminated by an empty line:
//
//	request:  "<code>\n<arg>\n\n"
//	response: "<line>\n...<line>\n\n"
func writeRequest(w io.Writer, cmd Command, arg string) error {
	if arg == "" {
		arg = DefaultArg
	}
	if strings.ContainsAny(arg, "\n\r") {
		return fmt.Errorf("argument for %s contains a newline", cmd)
	}
	_, err := io.WriteString(w, cmd.Code()+"\n"+arg+"\n\n")
	return err
}

// readFrame reads lines up to the blank terminator and returns them joined by "\n".
func readFrame(r *bufio.Reader) (string, error) {
	var (
		b    strings.Builder
		size int
	)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		size += len(line)
		if size > maxFrameBytes {
			return "", fmt.Errorf("%w: response exceeds %d bytes", ErrProtocol, maxFrameBytes)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return strings.TrimSuffix(b.String(), "\n"), nil
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// readRequest is the device side of the framing, used by the simulator.
func readRequest(r *bufio.Reader) (Command, string, error) {
	frame, err := readFrame(r)
	if err != nil {
		return 0, "", err
	}
	code, arg, _ := strings.Cut(frame, "\n")
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil || !Command(n).Valid() {
		return 0, "", fmt.Errorf("%w: unknown command code %q", ErrProtocol, code)
	}
	return Command(n), arg, nil
}

func writeResponse(w io.Writer, body string) error {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		body = "ok"
	}
	_, err := io.WriteString(w, body+"\n\n")
	return err
}

// Level is the device's internal heat setting, -100..100.
const (
	minLevel = -100
	maxLevel = 100

	neutralF  = 82.5
	fPerLevel = 27.5 / 100
	levelPerF = 100 / 27.5
)

// LevelToF converts a heat level to °F: -100 is 55°F, 0 is 82.5°F, 100 is 110°F.
func LevelToF(level int) int {
	return int(math.Round(neutralF + float64(level)*fPerLevel))
}

// FToLevel is the inverse of LevelToF, clamped to the device range.
func FToLevel(f int) int {
	lvl := int(math.Round((float64(f) - neutralF) * levelPerF))
	return min(max(lvl, minLevel), maxLevel)
}

// status keys the device must always report
var requiredStatusKeys = []string{
	"tgHeatLevelL", "tgHeatLevelR", "heatLevelL", "heatLevelR",
	"heatTimeL", "heatTimeR", "waterLevel", "priming",
}

// ParseStatus decodes a DEVICE_STATUS response made of "key = value" lines.
func ParseStatus(raw string) (models.DeviceState, error) {
	kv := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return models.DeviceState{}, fmt.Errorf("%w: status line %q has no '='", ErrProtocol, line)
		}
		kv[strings.TrimSpace(k)] = strings.Trim(strings.TrimSpace(v), `"`)
	}
	for _, k := range requiredStatusKeys {
		if _, ok := kv[k]; !ok {
			return models.DeviceState{}, fmt.Errorf("%w: status missing %q", ErrProtocol, k)
		}
	}

	p := statusParser{kv: kv}
	st := models.DeviceState{
		Left:         p.side("L"),
		Right:        p.side("R"),
		WaterLevel:   kv["waterLevel"],
		IsPriming:    p.boolean("priming"),
		CoverVersion: kv["sensorLabel"],
		HubVersion:   kv["hubVersion"],
		Settings: models.DeviceSettings{
			Version:       p.optionalInt("settingsVersion"),
			GainLeft:      p.optionalInt("gainL"),
			GainRight:     p.optionalInt("gainR"),
			LEDBrightness: p.optionalInt("ledBrightness"),
		},
	}
	if p.err != nil {
		return models.DeviceState{}, p.err
	}
	return st, nil
}

// statusParser keeps the first conversion error.
type statusParser struct {
	kv  map[string]string
	err error
}

func (p *statusParser) integer(key string) int {
	n, err := strconv.Atoi(p.kv[key])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q is not an integer", ErrProtocol, key, p.kv[key])
	}
	return n
}

func (p *statusParser) optionalInt(key string) int {
	if _, ok := p.kv[key]; !ok {
		return 0
	}
	return p.integer(key)
}

func (p *statusParser) boolean(key string) bool {
	v, ok := p.kv[key]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q is not a boolean", ErrProtocol, key, v)
	}
	return b
}

func (p *statusParser) side(suffix string) models.SideStatus {
	current := p.integer("heatLevel" + suffix)
	target := p.integer("tgHeatLevel" + suffix)
	remaining := p.integer("heatTime" + suffix)
	return models.SideStatus{
		CurrentTemperatureLevel: current,
		CurrentTemperatureF:     LevelToF(current),
		TargetTemperatureF:      LevelToF(target),
		SecondsRemaining:        remaining,
		IsOn:                    remaining > 0,
		IsAlarmVibrating:        p.boolean("alarm" + suffix),
	}
}

// FormatStatus is the encoder matching ParseStatus.
func FormatStatus(st models.DeviceState, targetL, targetR int) string {
	var b strings.Builder
	side := func(suffix string, s models.SideStatus, target int) {
		fmt.Fprintf(&b, "tgHeatLevel%s = %d\n", suffix, target)
		fmt.Fprintf(&b, "heatLevel%s = %d\n", suffix, s.CurrentTemperatureLevel)
		fmt.Fprintf(&b, "heatTime%s = %d\n", suffix, s.SecondsRemaining)
		fmt.Fprintf(&b, "alarm%s = %t\n", suffix, s.IsAlarmVibrating)
	}
	side("L", st.Left, targetL)
	side("R", st.Right, targetR)
	fmt.Fprintf(&b, "waterLevel = %s\n", st.WaterLevel)
	fmt.Fprintf(&b, "priming = %t\n", st.IsPriming)
	fmt.Fprintf(&b, "sensorLabel = %q\n", st.CoverVersion)
	fmt.Fprintf(&b, "hubVersion = %q\n", st.HubVersion)
	fmt.Fprintf(&b, "settingsVersion = %d\n", st.Settings.Version)
	fmt.Fprintf(&b, "gainL = %d\n", st.Settings.GainLeft)
	fmt.Fprintf(&b, "gainR = %d\n", st.Settings.GainRight)
	fmt.Fprintf(&b, "ledBrightness = %d\n", st.Settings.LEDBrightness)
	return b.String()
}
