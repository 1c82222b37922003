package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nhle/storefront/internal/account"
	"github.com/nhle/storefront/internal/api"
	"github.com/nhle/storefront/internal/app"
	"github.com/nhle/storefront/internal/cart"
	"github.com/nhle/storefront/internal/credential"
	"github.com/nhle/storefront/internal/logging"
	"github.com/nhle/storefront/internal/model"
	"github.com/nhle/storefront/internal/notification"
	"github.com/nhle/storefront/internal/order"
	"github.com/nhle/storefront/internal/session"
	"github.com/nhle/storefront/internal/store"
	"github.com/nhle/storefront/internal/telemetry"
	"github.com/nhle/storefront/internal/ui/cartview"
)

type flags struct {
	configPath  string
	metricsAddr string
	email       string
	password    string
	logout      bool
	initConfig  bool
}

func parseFlags() flags {
	var f flags
	pflag.StringVarP(&f.configPath, "config", "c", model.DefaultConfigPath(), "path to the YAML config file")
	pflag.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics.listen_addr)")
	pflag.StringVarP(&f.email, "email", "e", "", "sign in with this email instead of the login form")
	pflag.StringVarP(&f.password, "password", "p", "", "password for --email")
	pflag.BoolVar(&f.logout, "logout", false, "forget the stored session and exit")
	pflag.BoolVar(&f.initConfig, "init-config", false, "write the effective configuration to --config and exit")
	pflag.Parse()
	return f
}

func main() {
	if err := run(parseFlags()); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg, err := model.LoadConfig(f.configPath)
	if err != nil {
		return err
	}
	if f.initConfig {
		if err := model.SaveConfig(f.configPath, cfg); err != nil {
			return err
		}
		fmt.Println("wrote", f.configPath)
		return nil
	}
	if f.metricsAddr != "" {
		cfg.Metrics.ListenAddr = f.metricsAddr
	}

	logger, err := logging.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logging.Sync()
	logger.Info("starting storefront", zap.String("api", cfg.API.BaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	device, err := store.NewDeviceStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening device store: %w", err)
	}
	defer device.Close()

	secrets, err := credential.Open(filepath.Dir(cfg.Storage.Path))
	if err != nil {
		return err
	}
	sessions := session.NewManager(device, secrets)

	client := api.NewClient(api.Options{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout(),
		RetryAttempts:     cfg.API.RetryAttempts,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Logger:            logger,
	})
	accounts := account.NewService(client, sessions, logger)

	if f.logout {
		if err := accounts.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("signed out")
		return nil
	}

	sess, err := signIn(ctx, sessions, accounts, f)
	if err != nil {
		return err
	}

	if cfg.Metrics.ListenAddr != "" {
		telemetry.ServeMetrics(ctx, cfg.Metrics.ListenAddr, logger)
	}

	formatter := order.NewFormatter(cfg.Display.Locale, cfg.Display.Currency)

	notifOpts := []notification.Option{
		notification.WithLogger(logger.Named("notifications")),
		notification.WithPolling(cfg.Notifications.EnablePolling, cfg.Notifications.PollInterval()),
	}
	if saved, err := device.Get(ctx, store.KeyNotificationFilter); err == nil {
		notifOpts = append(notifOpts, notification.WithFilter(notification.Filter(saved)))
	}
	notifications := notification.NewStore(notification.NewHTTPGateway(client, sess), sess, notifOpts...)
	defer notifications.Close()

	lifecycle := order.NewLifecycle(order.NewHTTPGateway(client, sess), sess, order.Options{
		PageSize:  cfg.Orders.PageSize,
		Formatter: formatter,
		Logger:    logger.Named("orders"),
	})
	defer lifecycle.Close()

	root := app.New(app.Deps{
		Session:       sess,
		Notifications: notifications,
		Orders:        lifecycle,
		Cart:          cart.New(),
		CartService:   cart.NewService(client, sess),
		Formatter:     formatter,
		CartConfig: cartview.Config{
			FreeShippingThreshold: cfg.Cart.FreeShippingThreshold,
			ShippingFee:           cfg.Cart.ShippingFee,
			TaxRate:               cfg.Orders.TaxRate,
		},
		Device: device,
		Logger: logger,
	})

	p := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(app.Model); ok {
		m.Shutdown()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

// signIn restores the stored session or logs in, with flags when given and
// the interactive form otherwise.
func signIn(ctx context.Context, sessions *session.Manager, accounts *account.Service, f flags) (session.Session, error) {
	if f.email == "" {
		sess, err := sessions.Restore(ctx)
		switch {
		case err == nil && !sess.Expired(time.Now()):
			return sess, nil
		case err != nil && !errors.Is(err, session.ErrNoSession):
			logging.Get().Warn("restoring session failed", zap.Error(err))
		}
	}

	email, password := f.email, f.password
	for attempt := 0; ; attempt++ {
		if email == "" || password == "" {
			var err error
			email, password, err = loginForm(email)
			if err != nil {
				return session.Session{}, err
			}
		}
		sess, err := accounts.Login(ctx, email, password)
		if err == nil {
			return sess, nil
		}
		if f.email != "" || attempt >= 2 || errors.Is(err, context.Canceled) {
			return session.Session{}, fmt.Errorf("sign in: %s", api.Describe(err).Message)
		}
		fmt.Fprintln(os.Stderr, api.Describe(err).Message)
		password = ""
	}
}

func loginForm(email string) (string, string, error) {
	var password string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(&email).
			Validate(func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("enter a valid email")
				}
				return nil
			}),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&password),
	)).WithShowHelp(false)

	if err := form.Run(); err != nil {
		return "", "", fmt.Errorf("login form: %w", err)
	}
	return strings.TrimSpace(email), password, nil
}
