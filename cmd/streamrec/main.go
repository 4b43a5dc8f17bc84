package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"streamrec/internal/app"
)

func main() {
	var cfgPath string
	var template, serve bool
	flag.StringVar(&cfgPath, "config", "./config.json", "path to config file (json or yaml)")
	flag.BoolVar(&template, "template", false, "expand schedule_template instead of schedule_dict")
	flag.BoolVar(&serve, "serve", false, "keep running and repeat the full schedule daily")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := app.Run(ctx, app.Options{
		ConfigPath: cfgPath,
		Template:   template,
		Serve:      serve,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
