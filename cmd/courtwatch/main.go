package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"courtwatch/internal/config"
	"courtwatch/internal/http/handlers"
	applog "courtwatch/internal/log"
	"courtwatch/internal/notify"
	"courtwatch/internal/repos"
	"courtwatch/internal/services"
	"courtwatch/internal/subscribers"
	"courtwatch/internal/validate"
	"courtwatch/web"
)

const usage = `usage: courtwatch [command]

commands:
  serve                  run the refresh and monitor loops and the HTTP server (default)
  refresh                run one refresh cycle and exit
  subscribe <id>         add a notification recipient
  unsubscribe <id>       remove a notification recipient
  subscribers            list notification recipients
  interval <seconds>     set the monitor polling interval`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	applog.SetLevel(cfg.LogLevel)

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = serve(cfg)
	case "refresh":
		err = refreshOnce(cfg)
	case "subscribe", "unsubscribe", "subscribers", "interval":
		err = manageSubscribers(cfg, cmd, args)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func serve(cfg config.Config) error {
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	subs, err := subscribers.Load(cfg.SubscribersFile)
	if err != nil {
		return err
	}
	sender, closeSender, err := newSender(cfg)
	if err != nil {
		return err
	}
	defer closeSender()

	slotRepo := repos.NewSlotRepo(db)
	refresh := newRefreshService(cfg, slotRepo)
	monitor := services.NewMonitor(slotRepo, services.NewNotifier(sender, subs), cfg.Location)
	scheduler := services.NewScheduler(refresh, monitor,
		func() time.Duration { return cfg.RefreshInterval },
		subs.PollingInterval,
	)

	app := fiber.New(fiber.Config{
		Views:                 web.Views(),
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
	}))
	handlers.Mount(app, handlers.NewDeps(slotRepo, cfg, refresh, subs))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopsDone := make(chan error, 1)
	go func() { loopsDone <- scheduler.Run(ctx) }()

	listenErr := make(chan error, 1)
	go func() {
		applog.Info(nil, "server.listen", map[string]any{"addr": cfg.HTTPAddr})
		listenErr <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		stop()
		<-loopsDone
		return fmt.Errorf("http server: %w", err)
	}

	applog.Info(nil, "server.shutdown", nil)
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		applog.Error(nil, "server.shutdown.fail", err, nil)
	}
	if err := <-loopsDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func refreshOnce(cfg config.Config) error {
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := newRefreshService(cfg, repos.NewSlotRepo(db)).Refresh(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("fetched %d slots\n", n)
	return nil
}

func manageSubscribers(cfg config.Config, cmd string, args []string) error {
	subs, err := subscribers.Load(cfg.SubscribersFile)
	if err != nil {
		return err
	}

	switch cmd {
	case "subscribers":
		for _, id := range subs.Subscribers() {
			fmt.Println(id)
		}
		fmt.Printf("polling interval: %s\n", subs.PollingInterval())
		return nil
	case "interval":
		if len(args) != 1 {
			return errors.New("usage: courtwatch interval <seconds>")
		}
		secs, err := strconv.Atoi(args[0])
		if err != nil || secs <= 0 {
			return fmt.Errorf("invalid interval %q", args[0])
		}
		return subs.SetPollingInterval(time.Duration(secs) * time.Second)
	}

	if len(args) != 1 {
		return fmt.Errorf("usage: courtwatch %s <id>", cmd)
	}
	id, ok := validate.SubscriberID(args[0])
	if !ok {
		return fmt.Errorf("invalid subscriber id %q", args[0])
	}
	if cmd == "subscribe" {
		if err := subs.Add(id); err != nil {
			return err
		}
		applog.Audit(nil, "subscriber.add", map[string]any{"id": id})
		return nil
	}
	removed, err := subs.Remove(id)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("%s was not subscribed\n", id)
		return nil
	}
	applog.Audit(nil, "subscriber.remove", map[string]any{"id": id})
	return nil
}

func newRefreshService(cfg config.Config, slotRepo *repos.SlotRepo) *services.RefreshService {
	fetcher := services.NewFetcher(services.FetcherConfig{
		BaseURL:       cfg.UpstreamBaseURL,
		Timeout:       cfg.UpstreamTimeout,
		Workers:       cfg.FetchWorkers,
		LookaheadDays: cfg.LookaheadDays,
		Location:      cfg.Location,
	})
	refresh := services.NewRefreshService(fetcher, slotRepo, cfg.VenueSlug, cfg.CategorySlugs, cfg.Location)
	if cfg.ICSPath != "" {
		refresh.WithCalendar(services.NewCalendarService(cfg.ICSPath, cfg.Location))
	}
	return refresh
}

func newSender(cfg config.Config) (notify.Sender, func(), error) {
	noop := func() {}
	switch strings.ToLower(cfg.NotifyTransport) {
	case "telegram":
		return notify.NewTelegramSender(cfg.TelegramBotToken), noop, nil
	case "webhook":
		return notify.NewWebhookSender(cfg.NotifyWebhookURL, cfg.NotifyWebhookToken), noop, nil
	case "amqp":
		s, err := notify.NewAMQPSender(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				applog.Error(nil, "amqp.close.fail", err, nil)
			}
		}, nil
	default:
		return notify.NewConsoleSender(), noop, nil
	}
}
