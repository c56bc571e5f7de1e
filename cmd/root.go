// SPDX-License-Identifier: AGPL-3.0-or-later
// dstargateway - a D-STAR repeater and reflector gateway
// Copyright (C) 2026 dstargateway contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package cmd wires the gateway's command-line entry point: config
// load, logging setup, component construction, and signal handling.
// Grounded on the teacher's cmd/root.go NewCommand/runRoot split, with
// setupScheduler/setupDMRDatabaseJobs re-purposed for the hosts
// directory reload and IRCDDB health probe (§9.5) instead of the
// teacher's repeaterdb/userdb updates.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"

	"github.com/dstargateway/dstargateway/internal/aprs"
	"github.com/dstargateway/dstargateway/internal/callsignlist"
	"github.com/dstargateway/dstargateway/internal/config"
	"github.com/dstargateway/dstargateway/internal/dstarconst"
	"github.com/dstargateway/dstargateway/internal/gateway"
	"github.com/dstargateway/dstargateway/internal/hostcache"
	"github.com/dstargateway/dstargateway/internal/hostsdir"
	"github.com/dstargateway/dstargateway/internal/ircddb"
	"github.com/dstargateway/dstargateway/internal/logging"
	"github.com/dstargateway/dstargateway/internal/metrics"
	"github.com/dstargateway/dstargateway/internal/mqtt"
	"github.com/dstargateway/dstargateway/internal/reflector"
	"github.com/dstargateway/dstargateway/internal/repeaterproto"
	"github.com/dstargateway/dstargateway/internal/session"
)

// Exit codes per §6 External Interfaces / §7 Error Handling Design:
// configuration or init failure is 1, an unhandled exception anywhere
// (caught by the top-level recover in runRoot) is 2, and a fatal signal
// is 3.
const (
	ExitOK                 = 0
	ExitConfigError        = 1
	ExitUnhandledException = 2
	ExitFatalSignal        = 3
)

// NewCommand builds the root cobra command: a single positional
// config-path argument, no subcommands (§9.4).
func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dstargateway [config-path]",
		Short:   "D-STAR reflector/repeater gateway",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Args:    cobra.ExactArgs(1),
		RunE:    runRoot,
	}
	return cmd
}

// runRoot implements §7's "unhandled exception anywhere -> the
// terminate handler logs a fatal line ... and exits 2" via a top-level
// recover, the same deferred-recover shape the teacher's HTTP auth
// middleware uses per-request (internal/http/api/middleware/auth.go),
// generalized here to the whole process lifetime.
func runRoot(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("unhandled exception", "panic", r)
			os.Exit(ExitUnhandledException)
		}
	}()

	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "dstargateway: cannot open config file:", err)
		os.Exit(ExitConfigError)
	}
	cfg, err := config.Load(f)
	_ = f.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "dstargateway: invalid config:", err)
		os.Exit(ExitConfigError)
	}

	log := logging.New(logging.Level(cfg.Log.Level))
	slog.SetDefault(log)
	log.Info("starting gateway", "callsign", cfg.Gateway.Callsign)

	g, err := buildGateway(cfg, log)
	if err != nil {
		log.Error("failed to build gateway", "error", err)
		os.Exit(ExitConfigError)
	}

	scheduler, err := setupScheduler(g, cfg, log)
	if err != nil {
		log.Error("failed to create scheduler", "error", err)
		os.Exit(ExitConfigError)
	}
	defer func() { _ = scheduler.Shutdown() }()

	var metricsSrv *metrics.Server
	if cfg.Metrics.ListenAddress != "" {
		metricsSrv = metrics.NewServer(cfg.Metrics.ListenAddress)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR1)
	go handleSignals(sig, cancel, g, log)

	g.Run(runCtx)

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	return nil
}

// handleSignals implements §6's exit-code contract: TERM/INT request
// an orderly shutdown, USR1 reloads the hosts directory without
// restarting. Go has no portable way to trap SEGV/ILL/FPE/ABRT as the
// original C++ signal handlers do (those are hardware traps, not
// something a managed runtime can safely resume from) — this is
// recorded as a resolved Open Question in DESIGN.md rather than
// approximated with a recover() that would mask a corrupted process.
func handleSignals(sig <-chan os.Signal, cancel context.CancelFunc, g *gateway.Gateway, log *slog.Logger) {
	for s := range sig {
		switch s {
		case syscall.SIGUSR1:
			log.Info("received SIGUSR1, reloading hosts directory")
			go g.HostsDir.ReloadAsync(context.Background())
		case syscall.SIGTERM, syscall.SIGINT:
			log.Info("received shutdown signal", "signal", s.String())
			cancel()
			return
		}
	}
}

// setupScheduler re-purposes the teacher's gocron daily-job pattern
// for the hosts directory reload and IRCDDB backend health probe
// (§9.5): the hosts reload runs once at startup and then daily at
// midnight, the probe every 5 minutes.
func setupScheduler(g *gateway.Gateway, cfg config.Config, log *slog.Logger) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	go g.HostsDir.ReloadAsync(context.Background())
	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(func() {
			if err := g.HostsDir.Reload(context.Background()); err != nil {
				log.Error("scheduled hosts directory reload failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler: schedule hosts reload: %w", err)
	}

	if g.Directory != nil {
		_, err = scheduler.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(func() {
				g.Directory.Probe(context.Background())
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("scheduler: schedule ircddb probe: %w", err)
		}
	}

	scheduler.Start()
	return scheduler, nil
}

// buildGateway wires every component named in SPEC_FULL.md from a
// validated Config, matching the teacher's initializeServers
// construction step.
func buildGateway(cfg config.Config, log *slog.Logger) (*gateway.Gateway, error) {
	cache := hostcache.New()

	hostsDir := hostsdir.New(
		cache,
		cfg.Paths.HostsFilesInternetDir,
		cfg.Paths.HostsFilesCustomDir,
		hostsdir.Enabled{
			DExtra: cfg.HostsFiles.DExtra,
			DPlus:  cfg.HostsFiles.DPlus,
			DCS:    cfg.HostsFiles.DCS,
			XLX:    cfg.HostsFiles.XLX,
		},
		hostsdir.WithReloadInterval(cfg.HostsFiles.Reload),
		hostsdir.WithLogger(log),
	)

	var backends []*ircddb.Backend
	for i, ic := range cfg.IRCDDBs {
		if !ic.Enabled {
			continue
		}
		backends = append(backends, ircddb.NewBackend(fmt.Sprintf("ircddb%d", i+1), fmt.Sprintf("%s:%d", ic.Host, ic.Port), log))
	}
	var directory *ircddb.MultiClient
	if len(backends) > 0 {
		directory = ircddb.NewMultiClient(cache, log, backends...)
	}

	m := metrics.New()

	reflectors, err := buildReflectors(cfg, log)
	if err != nil {
		return nil, err
	}

	access, err := buildAccessControl(cfg)
	if err != nil {
		return nil, err
	}

	bands, err := buildBands(cfg, cache, directory, reflectors, access, log)
	if err != nil {
		return nil, err
	}

	var aprsSender *aprs.Sender
	if cfg.APRS.Enabled {
		aprsSender = aprs.New(cfg.APRS.Host, cfg.APRS.Port, cfg.Gateway.Callsign, cfg.APRS.Passcode, log)
	}

	var mqttPub *mqtt.Publisher
	if cfg.MQTT.Enabled {
		mqttPub, err = mqtt.New(cfg.MQTT.Host, cfg.MQTT.Port, cfg.MQTT.ClientID, cfg.MQTT.Username, cfg.MQTT.Password, log)
		if err != nil {
			return nil, fmt.Errorf("mqtt: %w", err)
		}
	}

	return gateway.New(cache, hostsDir, directory, reflectors, bands, aprsSender, mqttPub, m, log), nil
}

func buildAccessControl(cfg config.Config) (session.AccessControl, error) {
	whitelist, err := callsignlist.Load(cfg.AccessControl.WhitelistFile)
	if err != nil {
		return session.AccessControl{}, fmt.Errorf("access control: whitelist: %w", err)
	}
	blacklist, err := callsignlist.Load(cfg.AccessControl.BlacklistFile)
	if err != nil {
		return session.AccessControl{}, fmt.Errorf("access control: blacklist: %w", err)
	}
	restrict, err := callsignlist.Load(cfg.AccessControl.RestrictFile)
	if err != nil {
		return session.AccessControl{}, fmt.Errorf("access control: restrict: %w", err)
	}
	return session.AccessControl{Whitelist: whitelist, Blacklist: blacklist, Restrict: restrict}, nil
}

// buildReflectors starts one reflector.Handler per dialect enabled via
// any [Dextra]/[D-Plus]/[DCS]/[XLX] tuning section (§4.4). A missing
// section counts as enabled; a dialect whose section sets Enabled to
// false is left nil and simply unreachable from any band.
func buildReflectors(cfg config.Config, log *slog.Logger) (gateway.Reflectors, error) {
	own := dstarconst.GatewayCallsign(cfg.Gateway.Callsign)
	var r gateway.Reflectors
	var err error

	if cfg.Dextra.Enabled {
		if r.DExtra, err = reflector.New(reflector.DExtra(), own, log); err != nil {
			return r, fmt.Errorf("reflector dextra: %w", err)
		}
	}
	if cfg.DPlus.Enabled {
		if r.DPlus, err = reflector.New(reflector.DPlus(), own, log); err != nil {
			return r, fmt.Errorf("reflector dplus: %w", err)
		}
	}
	if cfg.DCS.Enabled {
		if r.DCS, err = reflector.New(reflector.DCS(), own, log); err != nil {
			return r, fmt.Errorf("reflector dcs: %w", err)
		}
	}
	if cfg.XLX.Enabled {
		if r.XLX, err = reflector.New(reflector.XLX(), own, log); err != nil {
			return r, fmt.Errorf("reflector xlx: %w", err)
		}
	}
	return r, nil
}

// buildBands constructs one Session per configured [Repeater N]
// section, bound to the local protocol handler named by its Protocol
// key and to the reflector dialect used for DTMF/callsign-routed
// links (DCS, per session.parseLinkCommand's canonical grammar).
func buildBands(cfg config.Config, cache *hostcache.Cache, directory *ircddb.MultiClient, reflectors gateway.Reflectors, access session.AccessControl, log *slog.Logger) ([]*gateway.Band, error) {
	own := dstarconst.GatewayCallsign(cfg.Gateway.Callsign)

	var bands []*gateway.Band
	for _, rc := range cfg.Repeaters {
		local, err := buildLocalLink(rc, cfg.Gateway.Address, log)
		if err != nil {
			return nil, fmt.Errorf("repeater %c: %w", rc.Band, err)
		}

		var resolver session.Resolver
		if rc.IRCDDBIndex > 0 && directory != nil {
			resolver = directory
		} else {
			resolver = noopResolver{}
		}

		peer := reflectors.DCS
		sess := session.New(own, rc.Band, cache, resolver, peerOrNil(peer), log)
		sess.Access = access
		sess.SetReconnectPolicy(dstarconst.ReconnectPolicy{
			Kind:    reconnectKind(rc.Reconnect),
			Minutes: rc.ReconnectAfter,
		})

		bands = append(bands, &gateway.Band{Module: rc.Band, Local: local, Session: sess})
	}
	return bands, nil
}

func reconnectKind(k config.ReconnectKind) dstarconst.ReconnectKind {
	switch k {
	case config.ReconnectFixed:
		return dstarconst.ReconnectFixed
	case config.ReconnectAfter:
		return dstarconst.ReconnectAfter
	default:
		return dstarconst.ReconnectNever
	}
}

// peerOrNil adapts a possibly-nil *reflector.Handler to the
// session.Peer interface: a typed nil pointer stored in an interface
// is non-nil, so session.Session's own `s.peer == nil` guard would
// never trigger if the pointer were passed through directly.
func peerOrNil(h *reflector.Handler) session.Peer {
	if h == nil {
		return nil
	}
	return h
}

func buildLocalLink(rc config.Repeater, bindHost string, log *slog.Logger) (repeaterproto.Link, error) {
	switch rc.Protocol {
	case "Icom":
		return repeaterproto.New(repeaterproto.Icom(), fmt.Sprintf("%s:%d", bindHost, rc.ListenPort), log)
	case "Homebrew":
		return repeaterproto.New(repeaterproto.Homebrew(), fmt.Sprintf("%s:%d", bindHost, rc.ListenPort), log)
	case "Dummy":
		return repeaterproto.NewDummy(), nil
	default:
		return nil, fmt.Errorf("unknown repeater protocol %q", rc.Protocol)
	}
}

// noopResolver is used for a band whose [Repeater N] section names no
// IRCDDB backend: "/CALLSIGN" routing then always fails closed instead
// of panicking on a nil Resolver.
type noopResolver struct{}

func (noopResolver) SendRepeater(ctx context.Context, repeaterCall string) (ircddb.RepeaterAnswer, error) {
	return ircddb.RepeaterAnswer{}, fmt.Errorf("no ircddb backend configured for this repeater")
}
