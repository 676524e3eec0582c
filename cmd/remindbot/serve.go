package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/remindbot/internal/profile"
	"github.com/hrygo/remindbot/plugin/reminder"
	"github.com/hrygo/remindbot/plugin/telegram"
	"github.com/hrygo/remindbot/plugin/timeparse"
	"github.com/hrygo/remindbot/server"
	"github.com/hrygo/remindbot/server/bot"
	"github.com/hrygo/remindbot/server/middleware"
	"github.com/hrygo/remindbot/server/timezone"
	"github.com/hrygo/remindbot/store/cache"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, the delivery worker and the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		if err := p.ValidateBot(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, p)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("addr", "", "address of the http server")
	flags.Int("port", 8081, "port of the http server")
	flags.String("bot-mode", profile.BotModePolling, "how updates are received: polling or webhook")
	for key, flag := range map[string]string{
		profile.KeyAddr:    "addr",
		profile.KeyPort:    "port",
		profile.KeyBotMode: "bot-mode",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func newQueue(ctx context.Context, p *profile.Profile) (reminder.Queue, func(), error) {
	if p.RedisURL == "" {
		slog.Warn("REDIS_URL is not set, using the in-process delivery queue")
		return reminder.NewMemoryQueue(), func() {}, nil
	}

	config := cache.RedisConfigFromURL(p.RedisURL)
	client, err := cache.NewRedisClient(ctx, config)
	if err != nil {
		return nil, nil, err
	}
	return reminder.NewRedisQueue(client, config.KeyPrefix), func() { _ = client.Close() }, nil
}

func serve(ctx context.Context, p *profile.Profile) error {
	s, err := openStore(ctx, p)
	if err != nil {
		return err
	}
	defer s.Close()

	queue, closeQueue, err := newQueue(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to open delivery queue: %w", err)
	}
	defer closeQueue()

	client := telegram.NewClient(telegram.Config{Token: p.BotToken, APIURL: p.BotAPIURL})
	reminders := reminder.NewService(s, queue, nil)
	users := reminder.NewUserService(s)
	states := bot.NewStateStore(time.Hour)
	defer states.Close()

	b := bot.New(bot.Config{
		Profile:   p,
		Messenger: client,
		Reminders: reminders,
		Users:     users,
		Time:      timeparse.NewService(timezone.Yekaterinburg, nil),
		Limiter:   middleware.NewRateLimiter(p.RateLimit, p.RateBurst),
		States:    states,
	})

	worker := reminder.NewWorker(reminders, users, b, reminder.NewMetricsCollector(), reminder.DefaultWorkerConfig())
	scheduler := reminder.NewScheduler(queue, worker, reminder.SchedulerConfig{Interval: p.DeliveryInterval})
	recovery := reminder.NewRecovery(reminders, users, reminder.RecoveryConfig{
		Schedule: p.RecoverySchedule,
		Location: timezone.Yekaterinburg,
	})

	httpServer := server.NewServer(server.Config{
		Addr:          p.ListenAddr(),
		WebhookSecret: p.WebhookSecret,
		Handle:        webhookHandler(p, b),
		Health:        reminder.NewHealthCheck(scheduler),
		Delivery:      worker.Metrics(),
		Updates:       b.Metrics(),
	})

	if err := client.SetMyCommands(ctx, b.Commands()); err != nil {
		slog.Warn("failed to set bot commands", "error", err)
	}
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()
	if err := recovery.Start(ctx); err != nil {
		return err
	}
	defer recovery.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	switch p.BotMode {
	case profile.BotModeWebhook:
		if err := client.SetWebhook(ctx, p.WebhookURL, p.WebhookSecret); err != nil {
			return fmt.Errorf("failed to register webhook: %w", err)
		}
		slog.Info("receiving updates by webhook", "url", p.WebhookURL)
	default:
		poller := telegram.NewPoller(client, 30)
		g.Go(func() error {
			return poller.Run(gctx, b.HandleUpdate)
		})
	}

	slog.Info("remindbot started", "version", p.Version, "mode", p.Mode, "bot_mode", p.BotMode, "driver", p.Driver)
	err = g.Wait()
	slog.Info("remindbot stopped")
	return err
}

// webhookHandler returns the update handler for the HTTP server, or nil
// in polling mode so the webhook route is not registered.
func webhookHandler(p *profile.Profile, b *bot.Bot) telegram.UpdateHandler {
	if p.BotMode != profile.BotModeWebhook {
		return nil
	}
	return b.HandleUpdate
}
