// Package main is the scenedit desktop scene editor.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/scenedit/internal/app"
	"github.com/Faultbox/scenedit/internal/config"
	"github.com/Faultbox/scenedit/internal/editor"
	"github.com/Faultbox/scenedit/internal/fileio"
	"github.com/Faultbox/scenedit/internal/logger"
)

func main() {
	// Parse CLI flags
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config written to", path)
		return
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== scenedit ===",
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	wd, _ := os.Getwd()
	session := editor.NewSession(cfg, fileio.DialogPicker{StartDir: wd}, fileio.DialogNotifier{})
	defer session.Close()

	a, err := app.New(cfg, session)
	if err != nil {
		logger.Error("failed to start editor", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	if path := config.ScenePath(); path != "" {
		a.Queue(func() error { return session.LoadFile(path) })
	}
	if path := config.OpenPath(); path != "" {
		a.Queue(func() error { return session.ImportFile(path) })
	}

	a.Run()

	logger.Info("editor closed normally")
}
