package app

import (
	"context"
	"time"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/orderflow/internal/events"
	"github.com/appetiteclub/orderflow/internal/mongo"
	"github.com/appetiteclub/orderflow/internal/orderflow"
	"github.com/appetiteclub/orderflow/pkg"
	"github.com/appetiteclub/orderflow/pkg/event"
)

const (
	AppName    = "orderflow"
	AppVersion = "0.1.0"
)

// App encapsulates the orderflow service application
type App struct {
	config    *apt.Config
	logger    apt.Logger
	micro     *apt.Micro
	orderRepo *mongo.OrderRepo
	service   *orderflow.Service
}

func New(config *apt.Config, logger apt.Logger) (*App, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Initialize wires storage, messaging, HTTP and the gRPC board stream. NATS connections are opened
// here; the repository connects when the micro service starts.
func (a *App) Initialize(ctx context.Context) error {
	a.orderRepo = mongo.NewOrderRepo(a.config, a.logger)

	natsURL := a.config.GetStringOrDef("nats.url", "nats://localhost:4222")

	var orderStream *pkg.NATSStream
	var eventPublisher aptevents.Publisher
	var closePublisher func() error

	streamEnabled, _ := a.config.GetString("nats.stream.enabled")
	if streamEnabled == "true" {
		streamCfg := pkg.NATSStreamConfig{
			URL:          natsURL,
			StreamName:   "ORDERFLOW_EVENTS",
			Topic:        event.OrdersTopic,
			ConsumerName: "orderflow-publisher",
			MaxAge:       24 * time.Hour,
			MaxMsgs:      0,
		}
		var err error
		orderStream, err = pkg.NewNATSStream(ctx, streamCfg)
		if err != nil {
			return err
		}
		a.logger.Info("NATS stream initialized for persistent events")
		eventPublisher = orderStream
		closePublisher = orderStream.Close
	} else {
		publisher, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			return err
		}
		eventPublisher = publisher
		closePublisher = publisher.Close
	}

	commandSub, err := pkg.NewNATSSubscriber(natsURL, a.logger)
	if err != nil {
		_ = closePublisher()
		return err
	}

	var streamForRegistry aptevents.StreamConsumer
	if orderStream != nil {
		streamForRegistry = orderStream
	}
	registry := orderflow.NewRegistry(streamForRegistry, a.orderRepo, a.logger)
	a.service = orderflow.NewService(registry, a.orderRepo, eventPublisher, a.logger)

	commandSubscriber := events.NewCommandSubscriber(commandSub, a.service, a.logger)
	handler := orderflow.NewHandler(a.service, a.config, a.logger)

	boardStream := orderflow.NewBoardStreamServer(a.service, a.logger)
	a.service.SetWatcher(boardStream)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      a.logger,
		DisableCORS: true,
	})
	stack = append(stack, middleware.InternalOnly())

	lifecycles := []interface{}{a.orderRepo}

	// Warm after the repo is connected, before commands start arriving
	registryLifecycle := apt.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			if err := registry.Warm(ctx); err != nil {
				a.logger.Info("failed to warm order registry", "error", err)
			}
			return nil
		},
	}
	lifecycles = append(lifecycles, registryLifecycle)

	demoEnabled, _ := a.config.GetString("seeding.demo")
	if demoEnabled == "true" {
		a.logger.Info("Demo seeding enabled for orderflow service")
		lifecycles = append(lifecycles, apt.LifecycleHooks{
			OnStart: orderflow.DemoSeedingFunc(a.service, a.logger),
		})
	}

	lifecycles = append(lifecycles,
		commandSubscriber,
		apt.LifecycleHooks{
			OnStop: func(context.Context) error { return commandSub.Close() },
		},
		apt.LifecycleHooks{
			OnStop: func(context.Context) error { return closePublisher() },
		},
	)

	options := []apt.Option{
		apt.WithConfig(a.config),
		apt.WithLogger(a.logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithGRPCServerModules("grpc.port", boardStream),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(AppName),
	}

	a.micro = apt.NewMicro(options...)
	return nil
}

// Run starts the application
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}

// Shutdown is a no-op: lifecycle cleanup is handled by apt.Micro.
func (a *App) Shutdown(ctx context.Context) error {
	return nil
}
