package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/df07/go-hitshade/pkg/config"
	"github.com/df07/go-hitshade/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	static := flag.String("static", "static", "Directory with the preview page")
	configPath := flag.String("config", "", "YAML file with default render settings")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	base := config.Config{}
	if *configPath != "" {
		var err error
		if base, err = config.Load(*configPath); err != nil {
			slog.Error("loading config", "err", err)
			os.Exit(1)
		}
	}

	webServer := server.NewServer(*port, *static, base)

	if err := webServer.Start(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
