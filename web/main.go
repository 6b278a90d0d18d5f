package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/df07/go-weekend-pathtracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	webServer := server.NewServer(*port)

	log.Printf("Weekend Path Tracer Web Server")
	log.Printf("Try http://localhost:%d/api/render?scene=final&width=400", *port)

	if err := webServer.Start(ctx); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
