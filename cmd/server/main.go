package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"partygames/internal/auth"
	"partygames/internal/catalog"
	"partygames/internal/config"
	"partygames/internal/game"
	"partygames/internal/hitster"
	"partygames/internal/server"
	"partygames/internal/wavelength"
	"partygames/internal/ws"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`partygames - Real-time party game server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT            Port to listen on (default: 8080)
  PUBLIC_URL      Base URL encoded into join QR codes (default: http://localhost:PORT)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("partygames %s\n", version)
		return
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)
	logger := zerologlog.Logger

	// Gin setup with custom logger (skip websocket noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/ws/") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	// Catalog, hub, managers
	source := catalog.NewSeededSource()
	hub := ws.NewHub(logger)
	wl := wavelength.NewManager(source, logger)
	hs := hitster.NewManager(source, logger)
	wl.SetNotify(func(roomID string) {
		hub.Publish("wavelength/"+roomID, ws.Event{Type: "room_updated", Game: "wavelength", RoomID: roomID})
	})
	hs.SetNotify(func(roomID string) {
		hub.Publish("hitster/"+roomID, ws.Event{Type: "room_updated", Game: "hitster", RoomID: roomID})
	})

	guests := auth.NewMemoryProvider()
	srv := server.New(guests, wl, hs, source, hub, cfg.PublicURL, logger)
	srv.Routes(r)

	// Background sweep for idle and expired rooms
	go func() {
		ticker := time.NewTicker(game.SweepInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			removed := wl.Sweep(now) + hs.Sweep(now)
			if removed > 0 {
				zerologlog.Info().Int("rooms", removed).Msg("swept expired rooms")
			}
		}
	}()

	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
