package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"controlling_pod/internal/analysis"
	"controlling_pod/internal/health"
	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"
	"controlling_pod/internal/repository"
	"controlling_pod/internal/schedule"
)

const (
	analysisTimeout = 30 * time.Second
	// DefaultHandleTimeout bounds one scheduled firing, settle delays included.
	DefaultHandleTimeout = 2 * time.Minute
)

// PartialApplier is the write side of device.Gateway.
type PartialApplier interface {
	ApplyPartial(ctx context.Context, u models.PartialDeviceState) error
}

type BiometricsFlag interface {
	Load(ctx context.Context) (models.Services, error)
}

// Orchestrator turns fired triggers into device writes and records the
// outcome per trigger kind.
type Orchestrator struct {
	gw        PartialApplier
	store     *health.Store
	events    repository.EventRepo
	flag      BiometricsFlag
	analyzer  analysis.Trigger
	lookback  time.Duration
	lookahead time.Duration
	timeout   time.Duration
	log       *logger.Logger
	now       func() time.Time

	wg sync.WaitGroup
}

type OrchestratorConfig struct {
	Lookback  time.Duration
	Lookahead time.Duration
	Timeout   time.Duration
}

func NewOrchestrator(gw PartialApplier, store *health.Store, events repository.EventRepo, flag BiometricsFlag,
	analyzer analysis.Trigger, cfg OrchestratorConfig, log *logger.Logger) *Orchestrator {
	if cfg.Lookback <= 0 {
		cfg.Lookback = analysis.DefaultLookback
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = analysis.DefaultLookahead
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHandleTimeout
	}
	for _, name := range []string{health.PowerSchedule, health.TemperatureSchedule, health.PrimeSchedule} {
		store.Set(name, models.StatusNotStarted, "")
	}
	return &Orchestrator{
		gw:        gw,
		store:     store,
		events:    events,
		flag:      flag,
		analyzer:  analyzer,
		lookback:  cfg.Lookback,
		lookahead: cfg.Lookahead,
		timeout:   cfg.Timeout,
		log:       log,
		now:       time.Now,
	}
}

// recordName maps a trigger kind to the health record it owns.
func recordName(k schedule.Kind) string {
	switch k {
	case schedule.KindPowerOn, schedule.KindPowerOff:
		return health.PowerSchedule
	case schedule.KindTemperature:
		return health.TemperatureSchedule
	case schedule.KindPrime:
		return health.PrimeSchedule
	}
	return ""
}

// Handle is the scheduler.Handler for every compiled trigger.
func (o *Orchestrator) Handle(ctx context.Context, t schedule.Trigger) error {
	wctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var err error
	switch t.Kind {
	case schedule.KindPowerOn:
		err = o.gw.ApplyPartial(wctx, models.ForSide(t.Side, models.SideUpdate{
			IsOn:               models.Bool(true),
			TargetTemperatureF: models.Int(t.Payload.OnTemperature),
		}))
	case schedule.KindPowerOff:
		err = o.gw.ApplyPartial(wctx, models.ForSide(t.Side, models.SideUpdate{IsOn: models.Bool(false)}))
		// the night's data exists whether or not the pod answered
		o.requestAnalysis(t.Side)
	case schedule.KindTemperature:
		err = o.gw.ApplyPartial(wctx, models.ForSide(t.Side, models.SideUpdate{
			TargetTemperatureF: models.Int(t.Payload.Temperature),
		}))
	case schedule.KindPrime:
		err = o.gw.ApplyPartial(wctx, models.PartialDeviceState{IsPriming: models.Bool(true)})
	default:
		err = fmt.Errorf("unknown trigger kind %q", t.Kind)
	}

	o.record(context.WithoutCancel(ctx), t, err)
	return err
}

func (o *Orchestrator) record(ctx context.Context, t schedule.Trigger, err error) {
	if name := recordName(t.Kind); name != "" {
		if err != nil {
			o.store.Failed(name, err)
		} else {
			o.store.Healthy(name)
		}
	}

	ev := models.JobEvent{
		OccurredAt:  o.now().UTC(),
		Type:        models.EventJobSucceeded,
		Key:         t.Key,
		Side:        string(t.Side),
		Description: schedule.Describe(t),
		Metadata:    map[string]any{"kind": t.Kind, "day": t.Day, "time": t.Time},
	}
	if err != nil {
		ev.Type, ev.Error = models.EventJobFailed, err.Error()
	}
	if aerr := o.events.Append(ctx, ev); aerr != nil {
		o.log.Warnw("job_event_append_failed", "key", t.Key, "error", aerr)
	}
}

// requestAnalysis runs in the background; nothing it does can fail the power-off.
// It is requested after every power-off firing, gated only by the biometrics flag.
func (o *Orchestrator) requestAnalysis(side models.Side) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
		defer cancel()

		svc, err := o.flag.Load(ctx)
		if err != nil {
			o.log.Warnw("biometrics_flag_unavailable", "error", err)
			return
		}
		if !svc.Biometrics.Enabled {
			return
		}

		start, end := analysis.Window(o.now(), o.lookback, o.lookahead)
		ev := models.JobEvent{
			OccurredAt:  o.now().UTC(),
			Type:        models.EventAnalysis,
			Side:        string(side),
			Description: "sleep analysis requested",
			Metadata:    map[string]any{"start": start.UTC(), "end": end.UTC()},
		}
		if err := o.analyzer.Analyze(ctx, side, start, end); err != nil {
			o.log.Warnw("analysis_trigger_failed", "side", side, "error", err)
			ev.Error = err.Error()
		}
		if err := o.events.Append(ctx, ev); err != nil {
			o.log.Warnw("job_event_append_failed", "error", err)
		}
	}()
}

// Wait blocks until background analysis requests have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
