package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RedBullDogE/compliment-bot/internal/app"
	"github.com/RedBullDogE/compliment-bot/internal/config"
	"github.com/RedBullDogE/compliment-bot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	log := logx.New(logx.Config{Level: cfg.Log.Level, Console: cfg.Log.Console})

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		os.Exit(1)
	}

	if err := a.Run(ctx, cfgPath); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}
