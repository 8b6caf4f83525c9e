package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"controlling_pod/internal/analysis"
	"controlling_pod/internal/device"
	"controlling_pod/internal/handlers"
	"controlling_pod/internal/health"
	"controlling_pod/internal/logger"
	"controlling_pod/internal/models"
	"controlling_pod/internal/repository"
	"controlling_pod/internal/repository/db"
	"controlling_pod/internal/scheduler"
	"controlling_pod/internal/server"
	"controlling_pod/internal/service"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.Get(logger.InfoLevel)

	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}
	log.SetLevel(viper.GetString("log.level"))
	watchConfig(log)

	store := health.NewStore()
	store.Healthy(health.Logger)

	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(sqlDB)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := device.NewChannel(log.Named("channel"))
	dial, closeDial, err := deviceDialer(ctx, log)
	if err != nil {
		log.Fatalw("failed to prepare device socket", "err", err)
	}
	defer closeDial()
	connector := device.NewConnector(ch, dial,
		viper.GetDuration("device.reconnect_min"), viper.GetDuration("device.reconnect_max"),
		viper.GetDuration("device.ping_interval"), store, log.Named("connector"))
	go connector.Run(ctx)

	gw := device.NewGateway(ch, viper.GetDuration("device.settle_delay"),
		viper.GetDuration("device.temperature_duration"), log.Named("gateway"))

	analyzer, reporters := buildAnalyzer(log)
	orch := service.NewOrchestrator(gw, store, repos.EventRepo, repos.ServicesRepo, analyzer,
		service.OrchestratorConfig{
			Lookback:  viper.GetDuration("analysis.lookback"),
			Lookahead: viper.GetDuration("analysis.lookahead"),
			Timeout:   viper.GetDuration("jobs.timeout"),
		}, log.Named("orchestrator"))

	jobs := scheduler.New(orch.Handle, store, log.Named("jobs"), scheduler.WithContext(ctx))
	aggregator := health.NewAggregator(store, sqlDB, repos.ServicesRepo, reporters...)

	services := service.NewService(service.Deps{
		Repos:      repos,
		Gateway:    gw,
		Scheduler:  jobs,
		Status:     aggregator,
		NudgeQuiet: viper.GetDuration("nudge.quiet_period"),
		Log:        log,
	})

	res, err := services.Schedules.CompileAndReconcile(ctx)
	if err != nil {
		// the sides that compiled are scheduled anyway
		log.Errorw("schedule_compile_failed", "err", err)
	}
	log.Infow("jobs_reconciled", "added", len(res.Added), "removed", len(res.Removed))
	jobs.Start()

	apiHandler := handlers.NewHandler(services, log.Named("http"))
	srv := server.New(store)
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	notifySystemd(ctx, log)

	waitForShutdown(cancel, srv, log)

	jobs.Stop()
	orch.Wait()
	if c, ok := services.Device.(interface{ Close() }); ok {
		c.Close()
	}
	if c, ok := analyzer.(interface{ Close() }); ok {
		c.Close()
	}
}

func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "pod.db")
		dbPath = "pod.db"
	}
	return db.InitDB(dbPath)
}

// deviceDialer picks how the channel reaches the pod controller. The returned
// func releases whatever the dialer holds.
func deviceDialer(ctx context.Context, log *logger.Logger) (device.Dialer, func(), error) {
	mode := viper.GetString("device.mode")
	if viper.GetBool("device.simulate") {
		mode = "simulate"
	}
	path := viper.GetString("device.socket_path")

	switch mode {
	case "simulate":
		sim := device.NewSimulator(log.Named("simulator"))
		go sim.Run(ctx, viper.GetDuration("device.sim_tick"))
		log.Infow("device_simulated")
		return sim.Dialer(), func() {}, nil
	case "dial":
		log.Infow("device_dial", "path", path)
		return device.UnixDialer(path), func() {}, nil
	default:
		// a stale socket from a previous run blocks Listen
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, err
		}
		ln, err := net.Listen("unix", path)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("device_listen", "path", path)
		return device.ListenerDialer(ln), func() { _ = ln.Close() }, nil
	}
}

func buildAnalyzer(log *logger.Logger) (analysis.Trigger, []health.Reporter) {
	switch viper.GetString("analysis.mode") {
	case "exec":
		argv := viper.GetStringSlice("analysis.command")
		if len(argv) == 0 {
			log.Warnw("analysis.command is empty; analysis disabled")
			return analysis.Nop{}, nil
		}
		return analysis.NewExecTrigger(argv, log.Named("analysis")), nil
	case "mqtt":
		pub, err := analysis.DialBroker(viper.GetString("analysis.mqtt.broker"), viper.GetString("analysis.mqtt.client_id"))
		if err != nil {
			log.Errorw("mqtt_connect_failed", "err", err)
			return analysis.Nop{}, []health.Reporter{failedReporter{name: health.MQTT, err: err}}
		}
		t := analysis.NewMQTTTrigger(pub, viper.GetString("analysis.mqtt.topic"), log.Named("analysis"))
		return t, []health.Reporter{t}
	}
	return analysis.Nop{}, nil
}

// failedReporter keeps a subsystem that never came up visible in the status document.
type failedReporter struct {
	name string
	err  error
}

func (f failedReporter) HealthRecord(context.Context) models.HealthRecord {
	rec := health.Blank(f.name)
	rec.Status, rec.Message = models.StatusFailed, f.err.Error()
	return rec
}

// notifySystemd reports readiness and, when the unit has WatchdogSec set,
// pings the watchdog until ctx is done. Outside systemd both are no-ops.
func notifySystemd(ctx context.Context, log *logger.Logger) {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warnw("sd_notify_failed", "err", err)
	}
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	}()
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	// stop background goroutines
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
