package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BioHazard786/eggcombat/internal/config"
	"github.com/BioHazard786/eggcombat/internal/roomcode"
	"github.com/BioHazard786/eggcombat/internal/session"
	"github.com/BioHazard786/eggcombat/internal/transport/rtc"
	"github.com/BioHazard786/eggcombat/internal/ui"
	"github.com/BioHazard786/eggcombat/internal/utils"
)

func configOptions() config.Options {
	return config.Options{
		Domain:       flagDomain,
		SignalingURL: flagSignaling,
		STUNServer:   flagSTUN,
		TURNServer:   flagTURN,
		TURNUser:     flagTURNUser,
		TURNPass:     flagTURNPass,
		ForceRelay:   flagRelay,
		ConfigFile:   flagConfig,
		EnvFile:      flagEnvFile,
	}
}

func LoadConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, session.NewError("load config", err)
	}
	return cfg, nil
}

// NewCoordinator builds a session coordinator that talks WebRTC through the configured signaling server.
func NewCoordinator(cfg *config.Config, log *slog.Logger) *session.Coordinator {
	factory := rtc.Factory(rtc.OptionsFromConfig(cfg, log))
	return session.NewCoordinator(session.NewStore(), factory,
		session.WithLogger(log),
		session.WithNamespace(cfg.Namespace()),
	)
}

// play opens the arena view and prints the session summary once it closes.
func play(ctx context.Context, mode ui.Mode, code roomcode.Code) error {
	cfg, err := LoadConfig(configOptions())
	if err != nil {
		return err
	}

	if !cfg.ForceRelay && cfg.TURNServer == "" {
		if iface, ok := utils.RestrictedInterface(); ok {
			ui.PrintWarningf("%s looks like a VPN or CGNAT link; configure --turn if peers cannot connect", iface)
		}
	}

	log := slog.Default()
	summary, err := ui.Run(ctx, ui.Options{
		Coordinator:   NewCoordinator(cfg, log),
		Mode:          mode,
		Code:          code,
		TickInterval:  cfg.TickInterval(),
		SmoothingRate: cfg.SmoothingRate,
		RoomLink:      cfg.GetRoomLink,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	if summary.Duration > 0 {
		fmt.Println()
		ui.RenderSummary(ui.IconEgg+" Session Summary", summary)
	}
	return nil
}
