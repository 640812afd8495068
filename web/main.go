package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-ppm-raytracer/pkg/scene"
	"github.com/df07/go-ppm-raytracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenesDir := flag.String("scenes-dir", scene.DefaultScenesDir, "Directory of JSON scene files")
	flag.Parse()

	// Create and start web server
	webServer := server.NewServer(*port, *scenesDir)

	log.Printf("PPM Raytracer Web Server")
	log.Printf("Try http://localhost:%d/api/render?scene=default&format=png", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
