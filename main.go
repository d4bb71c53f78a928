package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"csmc-bot/bot"
	"csmc-bot/config"
	"csmc-bot/handlers"
	"csmc-bot/lang"
	"csmc-bot/storage"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to config file")
	langPath := flag.String("lang", "", "Path to the message catalog (overrides config)")
	cleanup := flag.Bool("cleanup", false, "Remove slash commands on shutdown")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Discord.Token = token
	}
	if cfg.Discord.Token == "" || cfg.Discord.Token == "YOUR_DISCORD_BOT_TOKEN_HERE" {
		log.Fatal("Set your bot token in config.json → discord.token or the DISCORD_TOKEN env var")
	}

	if *langPath != "" {
		cfg.Language.MessagesFile = *langPath
	}

	storage.Cfg = cfg

	lang.Load(cfg.Language.MessagesFile)

	if err := storage.InitDB(&cfg.Database); err != nil {
		log.Printf("WARNING: Database init failed (%v). Audit history disabled.", err)
	} else {
		defer storage.DB.Close()
	}

	b, err := bot.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	handlers.InitSupport(b.Session, cfg)
	handlers.Register(b.Session)
	handlers.RegisterWelcome(b.Session)

	if err := b.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}
	defer b.Stop()

	registered := b.RegisterCommands(handlers.Commands())

	statsStop := make(chan struct{})
	handlers.StartStatsLoop(b.Session, statsStop)
	defer close(statsStop)

	log.Println("Bot is running. Press Ctrl+C to exit.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	if *cleanup {
		b.CleanupCommands(registered)
	}
}
