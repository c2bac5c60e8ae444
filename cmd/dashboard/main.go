package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"workOrders/internal/dashboard/server"
)

func main() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "./config.yml"
	}
	configPath := flag.String("config", defaultConfig, "Path to the YAML configuration file")
	flag.Parse()

	log.Println("Starting application...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := server.NewServer(ctx, *configPath)
	if err != nil {
		log.Fatalf("ERROR: Can't read configuration, %s", err)
	}
	if err := s.Run(); err != nil {
		log.Fatalf("ERROR: Can't start server, %s", err)
	}
	log.Println("Application started!")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	cancel()
	s.Stop()
	log.Println("Shutting down")
}
