package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"Popmap_discord_bot/internal/choropleth"
	"Popmap_discord_bot/internal/commands"
	"Popmap_discord_bot/internal/config"
	"Popmap_discord_bot/internal/handler"
	"Popmap_discord_bot/internal/metrics"
	"Popmap_discord_bot/internal/models"
	"Popmap_discord_bot/internal/regions"
	"Popmap_discord_bot/internal/render"
	"Popmap_discord_bot/internal/session"
	"Popmap_discord_bot/internal/utils"
	"Popmap_discord_bot/internal/version"
	"Popmap_discord_bot/internal/viewer"
)

const sessionSweepInterval = time.Minute

func main() {
	cfg := config.Load()
	if cfg == nil {
		log.Fatal("Failed to load configuration")
	}
	if cfg.Token == "" {
		log.Fatal("DISCORD_TOKEN is required")
	}

	collector, err := metrics.NewCollector(nil)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	loader := regions.NewLoader(regions.LoaderOptions{
		URL:       cfg.DatasetURL,
		CachePath: cfg.DatasetCache,
		Keys:      cfg.Keys,
		Limiter:   utils.NewRateLimiter(cfg.FetchRPS),
		OnLoad:    collector.DatasetLoad,
	})

	store := session.NewStore(cfg.SessionMax, cfg.SessionTTL)
	store.OnChange = func(n int) { collector.SetSessions("discord", n) }

	settings := config.NewSettingsManager(cfg.SettingsPath)
	if err := settings.Load(); err != nil {
		log.Printf("Failed to load guild settings: %v", err)
	}

	renderOpts := render.Options{
		Width:  cfg.Width,
		Height: cfg.Height,
		Title:  choropleth.LegendTitle + " by country",
	}
	popmap := &commands.Popmap{
		Loader:   loader,
		Sessions: store,
		Settings: settings,
		Metrics:  collector,
		Render:   renderOpts,
		Locale:   cfg.Locale,
	}

	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatal(err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	h := handler.NewHandler("!", models.NewBotInfo(version.Version), popmap, cfg.ViewerURL, cfg.GuildID)
	dg.AddHandler(h.OnReady)
	dg.AddHandler(h.OnMessage)
	dg.AddHandler(h.OnInteractionCreate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ViewerAddr != "" {
		srv := viewer.New(viewer.Options{
			Loader:  loader,
			Metrics: collector,
			Render:  renderOpts,
			Locale:  cfg.Locale,
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.ViewerAddr); err != nil {
				log.Printf("Viewer stopped: %v", err)
			}
		}()
	}

	go sweepSessions(ctx, store)

	if err := dg.Open(); err != nil {
		log.Fatal(err)
	}
	defer func() {
		h.Cleanup(dg)
		dg.Close()
	}()

	log.Println("Date:", time.Now().Format("2006-01-02"))
	<-ctx.Done()
	log.Println("Shutting down...")
}

// sweepSessions 期限切れのマップを定期的に捨てる
func sweepSessions(ctx context.Context, store *session.Store) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				log.Printf("Expired %d popmap sessions", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
