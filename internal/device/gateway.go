package device

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"
)

// ErrInvalidUpdate rejects a partial update before anything is sent.
var ErrInvalidUpdate = errors.New("invalid device update")

// Caller is the command contract the gateway writes through. *Channel implements it.
type Caller interface {
	Call(ctx context.Context, cmd Command, arg string) (string, error)
}

// Gateway is the only writer of device state. Writes to one side are
// serialized; the cached state is whatever the device last reported.
type Gateway struct {
	ch           Caller
	settle       time.Duration
	tempDuration time.Duration
	log          *logger.Logger

	left, right sync.Mutex

	stateMu sync.RWMutex
	state   models.DeviceState
	known   bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGateway builds a gateway. tempDuration is how long a side stays on after
// a power-on write.
func NewGateway(ch Caller, settle, tempDuration time.Duration, log *logger.Logger) *Gateway {
	return &Gateway{
		ch:           ch,
		settle:       settle,
		tempDuration: tempDuration,
		log:          log,
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (g *Gateway) sideLock(side models.Side) *sync.Mutex {
	if side == models.SideRight {
		return &g.right
	}
	return &g.left
}

func validateUpdate(u models.PartialDeviceState) error {
	for _, side := range models.Sides {
		su := u.For(side)
		if su == nil {
			continue
		}
		if t := su.TargetTemperatureF; t != nil && (*t < models.MinTemperatureF || *t > models.MaxTemperatureF) {
			return fmt.Errorf("%w: %s target %d°F outside [%d,%d]", ErrInvalidUpdate, side, *t, models.MinTemperatureF, models.MaxTemperatureF)
		}
		if v := su.IsAlarmVibrating; v != nil && *v {
			return fmt.Errorf("%w: %s alarm can only be cleared", ErrInvalidUpdate, side)
		}
	}
	return nil
}

// ApplyPartial sends the fields present in u, waits for the device to settle
// and re-reads its status. Channel errors are returned unchanged.
func (g *Gateway) ApplyPartial(ctx context.Context, u models.PartialDeviceState) error {
	if err := validateUpdate(u); err != nil {
		return err
	}

	priming := u.IsPriming != nil && *u.IsPriming
	// left before right keeps lock order fixed
	for _, side := range models.Sides {
		if !u.For(side).Empty() || priming {
			l := g.sideLock(side)
			l.Lock()
			defer l.Unlock()
		}
	}

	wrote := false
	for _, side := range models.Sides {
		su := u.For(side)
		if su.Empty() {
			continue
		}
		if err := g.writeSide(ctx, side, su); err != nil {
			return err
		}
		wrote = true
	}
	if priming {
		if _, err := g.ch.Call(ctx, Prime, ""); err != nil {
			return err
		}
		wrote = true
	}
	if !wrote {
		return nil
	}

	if err := g.sleep(ctx, g.settle); err != nil {
		return err
	}
	_, err := g.refresh(ctx)
	return err
}

func (g *Gateway) writeSide(ctx context.Context, side models.Side, su *models.SideUpdate) error {
	if su.TargetTemperatureF != nil {
		level := FToLevel(*su.TargetTemperatureF)
		if _, err := g.ch.Call(ctx, TempLevelFor(side), strconv.Itoa(level)); err != nil {
			return err
		}
	}
	if su.IsOn != nil {
		secs := "0"
		if *su.IsOn {
			secs = strconv.Itoa(int(g.tempDuration.Seconds()))
		}
		if _, err := g.ch.Call(ctx, TempDurationFor(side), secs); err != nil {
			return err
		}
	}
	if su.IsAlarmVibrating != nil {
		if _, err := g.ch.Call(ctx, AlarmClear, ""); err != nil {
			return err
		}
	}
	g.log.Infow("device_side_updated", "side", side,
		"is_on", su.IsOn != nil && *su.IsOn, "power_changed", su.IsOn != nil,
		"target_changed", su.TargetTemperatureF != nil)
	return nil
}

// Refresh re-reads the device status into the cache.
func (g *Gateway) Refresh(ctx context.Context) (models.DeviceState, error) {
	return g.refresh(ctx)
}

func (g *Gateway) refresh(ctx context.Context) (models.DeviceState, error) {
	raw, err := g.ch.Call(ctx, DeviceStatus, "")
	if err != nil {
		return models.DeviceState{}, err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return models.DeviceState{}, err
	}
	st.UpdatedAt = g.now().UTC()

	g.stateMu.Lock()
	g.state, g.known = st, true
	g.stateMu.Unlock()
	return st, nil
}

// State returns the last device-confirmed state and whether one exists yet.
func (g *Gateway) State() (models.DeviceState, bool) {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return g.state, g.known
}

// Execute sends a raw command. It takes both side locks so it never
// interleaves with a partial update.
func (g *Gateway) Execute(ctx context.Context, cmd Command, arg string) (string, error) {
	g.left.Lock()
	defer g.left.Unlock()
	g.right.Lock()
	defer g.right.Unlock()
	return g.ch.Call(ctx, cmd, arg)
}
