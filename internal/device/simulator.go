package device

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"
)

// ----------- Simulation constants -----------
const (
	AmbientLevel      = 0.0  // water temperature with the heater idle
	RampLevelsPerSec  = 1.0  // level change per second while a side is on
	DriftLevelsPerSec = 0.25 // level change per second toward ambient while off
	PrimeDuration     = 5 * time.Minute
	simHubVersion     = "sim-hub"
	simCoverVersion   = "sim-cover"
)

type simSide struct {
	target    int
	current   float64
	remaining float64 // seconds
	vibrating bool
}

// Simulator is an in-process pod controller speaking the same framing as the
// real one. Temperatures drift toward the target while a side is on.
type Simulator struct {
	mu       sync.Mutex
	sides    [2]simSide
	priming  float64 // seconds left
	lastTick time.Time
	log      *logger.Logger
	commands []Command
}

func NewSimulator(log *logger.Logger) *Simulator {
	return &Simulator{log: log, lastTick: time.Now()}
}

// Dialer returns an in-memory connection served by the simulator.
func (s *Simulator) Dialer() Dialer {
	return func(ctx context.Context) (net.Conn, error) {
		client, server := net.Pipe()
		go s.ServeConn(server)
		return client, nil
	}
}

// Serve accepts connections from ln until it is closed.
func (s *Simulator) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.ServeConn(conn)
	}
}

// ServeConn handles requests on conn until it is closed.
func (s *Simulator) ServeConn(conn net.Conn) {
	defer conn.Close()
	rd := bufio.NewReader(conn)
	for {
		cmd, arg, err := readRequest(rd)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				s.log.Debugw("simulator_read_failed", "error", err)
			}
			return
		}
		if err := writeResponse(conn, s.Handle(cmd, arg)); err != nil {
			return
		}
	}
}

// Handle applies one command and returns the response body.
func (s *Simulator) Handle(cmd Command, arg string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance(time.Now())
	s.commands = append(s.commands, cmd)

	switch cmd {
	case TempLevelLeft, TempLevelRight:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return "error: bad level"
		}
		s.sides[levelSide(cmd)].target = min(max(n, minLevel), maxLevel)
	case LeftTempDuration, RightTempDuration:
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return "error: bad duration"
		}
		s.sides[durationSide(cmd)].remaining = float64(n)
	case AlarmLeft:
		s.sides[0].vibrating = true
	case AlarmRight:
		s.sides[1].vibrating = true
	case AlarmClear:
		s.sides[0].vibrating, s.sides[1].vibrating = false, false
	case Prime:
		s.priming = PrimeDuration.Seconds()
	case DeviceStatus:
		return FormatStatus(s.stateLocked(), s.sides[0].target, s.sides[1].target)
	}
	return "ok"
}

func levelSide(cmd Command) int {
	if cmd == TempLevelRight {
		return 1
	}
	return 0
}

func durationSide(cmd Command) int {
	if cmd == RightTempDuration {
		return 1
	}
	return 0
}

// Commands returns every command received so far.
func (s *Simulator) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Command(nil), s.commands...)
}

// State reports what the simulated device would answer to DEVICE_STATUS.
func (s *Simulator) State() models.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Simulator) stateLocked() models.DeviceState {
	side := func(ss simSide) models.SideStatus {
		cur := int(ss.current)
		return models.SideStatus{
			CurrentTemperatureLevel: cur,
			CurrentTemperatureF:     LevelToF(cur),
			TargetTemperatureF:      LevelToF(ss.target),
			SecondsRemaining:        int(ss.remaining),
			IsOn:                    int(ss.remaining) > 0,
			IsAlarmVibrating:        ss.vibrating,
		}
	}
	return models.DeviceState{
		Left:         side(s.sides[0]),
		Right:        side(s.sides[1]),
		WaterLevel:   "true",
		IsPriming:    s.priming > 0,
		CoverVersion: simCoverVersion,
		HubVersion:   simHubVersion,
	}
}

// Run advances the simulation every tick until ctx is canceled.
func (s *Simulator) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.mu.Lock()
			s.advance(now)
			s.mu.Unlock()
		}
	}
}

// advance moves the simulation forward to now. Callers hold s.mu.
func (s *Simulator) advance(now time.Time) {
	elapsed := now.Sub(s.lastTick).Seconds()
	if elapsed < 1 {
		return
	}
	s.lastTick = now
	for i := range s.sides {
		stepSide(&s.sides[i], elapsed)
	}
	s.priming = maxFloat(s.priming-elapsed, 0)
}

// stepSide ramps toward the target while on and drifts to ambient while off.
func stepSide(ss *simSide, elapsed float64) {
	if ss.remaining > 0 {
		ss.current = approach(ss.current, float64(ss.target), RampLevelsPerSec*elapsed)
		ss.remaining = maxFloat(ss.remaining-elapsed, 0)
		return
	}
	ss.current = approach(ss.current, AmbientLevel, DriftLevelsPerSec*elapsed)
}

func approach(from, to, step float64) float64 {
	switch {
	case from < to:
		return minFloat(from+step, to)
	case from > to:
		return maxFloat(from-step, to)
	}
	return from
}

func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}
