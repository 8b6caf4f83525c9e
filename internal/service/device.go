package service

import (
	"context"
	"fmt"
	"time"

	"controlling_pod/internal/debounce"
	"controlling_pod/internal/device"
	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"

	"golang.org/x/time/rate"
)

const (
	defaultNudgeQuiet = 2 * time.Second
	nudgeWriteTimeout = 30 * time.Second

	// raw commands bypass validation; keep a client from flooding the socket
	executeEvery = 200 * time.Millisecond
	executeBurst = 5
)

type DeviceService struct {
	gw      Gateway
	nudges  map[models.Side]*debounce.Debouncer
	limiter *rate.Limiter
	log     *logger.Logger
}

func NewDeviceService(gw Gateway, quiet time.Duration, log *logger.Logger) *DeviceService {
	if quiet <= 0 {
		quiet = defaultNudgeQuiet
	}
	return &DeviceService{
		gw: gw,
		nudges: map[models.Side]*debounce.Debouncer{
			models.SideLeft:  debounce.New(quiet),
			models.SideRight: debounce.New(quiet),
		},
		limiter: rate.NewLimiter(rate.Every(executeEvery), executeBurst),
		log:     log,
	}
}

// ApplyPartial surfaces channel and protocol errors to the caller.
func (s *DeviceService) ApplyPartial(ctx context.Context, u models.PartialDeviceState) error {
	return s.gw.ApplyPartial(ctx, u)
}

// GetState returns the cached device state, reading it once if nothing is cached yet.
func (s *DeviceService) GetState(ctx context.Context) (models.DeviceState, error) {
	if st, ok := s.gw.State(); ok {
		return st, nil
	}
	return s.gw.Refresh(ctx)
}

func (s *DeviceService) Refresh(ctx context.Context) (models.DeviceState, error) {
	return s.gw.Refresh(ctx)
}

// Execute sends a raw command by name, e.g. "PRIME".
func (s *DeviceService) Execute(ctx context.Context, command, arg string) (string, error) {
	cmd, err := device.ParseCommand(command)
	if err != nil {
		return "", fmt.Errorf("%w: %v", device.ErrInvalidUpdate, err)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return s.gw.Execute(ctx, cmd, arg)
}

// Nudge sets a side's target temperature once requests for that side have
// been quiet for a while. Only the last value in a burst is written.
func (s *DeviceService) Nudge(side models.Side, temperatureF int) error {
	if temperatureF < models.MinTemperatureF || temperatureF > models.MaxTemperatureF {
		return fmt.Errorf("%w: %s target %d°F outside [%d,%d]", device.ErrInvalidUpdate, side, temperatureF, models.MinTemperatureF, models.MaxTemperatureF)
	}
	d, ok := s.nudges[side]
	if !ok {
		return fmt.Errorf("%w: unknown side %q", device.ErrInvalidUpdate, side)
	}
	d.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), nudgeWriteTimeout)
		defer cancel()
		u := models.ForSide(side, models.SideUpdate{TargetTemperatureF: models.Int(temperatureF)})
		if err := s.gw.ApplyPartial(ctx, u); err != nil {
			s.log.Warnw("nudge_failed", "side", side, "temperature_f", temperatureF, "error", err)
		}
	})
	return nil
}

// Close drops pending nudges.
func (s *DeviceService) Close() {
	for _, d := range s.nudges {
		d.Stop()
	}
}
