package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/eventzo/internal/config"
	"github.com/joshua-takyi/eventzo/internal/connect"
	"github.com/joshua-takyi/eventzo/internal/gateway"
	"github.com/joshua-takyi/eventzo/internal/helpers"
	"github.com/joshua-takyi/eventzo/internal/mailer"
	"github.com/joshua-takyi/eventzo/internal/memstore"
	"github.com/joshua-takyi/eventzo/internal/models"
	"github.com/joshua-takyi/eventzo/internal/services"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repos is the storage the services run on.
type Repos struct {
	Events        models.EventRepo
	Bookings      models.BookingRepo
	Payments      models.PaymentRepo
	Notifications models.NotificationRepo
}

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Auth   *helpers.Authenticator

	MongoDBClient *mongo.Client
	RedisClient   *redis.Client
	DeliveryQueue *services.RedisDeliveryQueue

	EventService   *services.EventService
	PaymentService *services.PaymentService
	BookingService *services.BookingService
	TicketService  *services.TicketService
}

// Options carries the optional collaborators. Nil fields are simply not wired.
type Options struct {
	Gateway     services.Gateway
	Mailer      services.Mailer
	TicketStore services.TicketStore
	Queue       *services.RedisDeliveryQueue
	Profiles    models.ProfileDirectory
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger, auth *helpers.Authenticator, repos Repos, opts Options) *Container {
	var queue services.RetryQueue
	if opts.Queue != nil {
		queue = opts.Queue
	}

	eventService := services.NewEventService(repos.Events)
	inventory := services.NewInventoryService(repos.Events)
	paymentService := services.NewPaymentService(opts.Gateway, repos.Payments, repos.Bookings,
		cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.Currency, logger)
	ticketService := services.NewTicketService(repos.Bookings, repos.Events, opts.Mailer, opts.TicketStore, queue,
		cfg.TicketMaxAttempts, logger)
	bookingService := services.NewBookingService(repos.Bookings, repos.Events, repos.Notifications,
		inventory, paymentService, ticketService, logger)
	if opts.Profiles != nil {
		bookingService.UseProfiles(opts.Profiles)
	}

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Auth:           auth,
		DeliveryQueue:  opts.Queue,
		EventService:   eventService,
		PaymentService: paymentService,
		BookingService: bookingService,
		TicketService:  ticketService,
	}
}

// Build connects every configured backend and wires the services on top.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	auth, err := helpers.NewAuthenticator(ctx, cfg.JWTSecret, cfg.JWKSURL)
	if err != nil {
		return nil, err
	}

	var (
		repos       Repos
		mongoClient *mongo.Client
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		store := memstore.New()
		repos = Repos{Events: store, Bookings: store, Payments: store, Notifications: store}
		logger.Warn("using in-memory store, data is lost on restart")
	default:
		mongoClient, err = connect.MongoDBConnect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		repo := models.MongodbNewRepo(mongoClient, cfg.MongoDBName).WithLogger(logger)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		repos = Repos{Events: repo, Bookings: repo, Payments: repo, Notifications: repo}
		logger.Info("Connected to MongoDB successfully", "database", cfg.MongoDBName)
	}

	opts := Options{
		Gateway: gateway.NewRazorpay(gateway.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret).Order, logger),
	}

	if cfg.SupabaseEnabled() {
		supaClient, err := connect.InitSupabase(cfg)
		if err != nil {
			return nil, err
		}
		opts.Profiles = models.SupabaseNewRepo(supaClient, cfg.SupabaseURL, cfg.SupabaseAnonKey)
		logger.Info("Connected to Supabase successfully")
	}

	if cfg.CloudinaryEnabled() {
		cld, err := connect.CloudinaryCredentials(cfg)
		if err != nil {
			return nil, err
		}
		opts.TicketStore = helpers.NewCloudinaryTicketStore(cld, helpers.TicketsFolder)
	}

	if cfg.MailEnabled() {
		opts.Mailer = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		logger.Warn("SMTP_HOST not set, tickets will not be mailed")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = connect.RedisConnect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts.Queue = services.NewRedisDeliveryQueue(redisClient, services.DefaultDeliveryQueueKey, logger)
		logger.Info("Connected to Redis successfully")
	}

	c := NewContainer(cfg, logger, auth, repos, opts)
	c.MongoDBClient = mongoClient
	c.RedisClient = redisClient
	return c, nil
}

// Close releases the backends Build connected.
func (c *Container) Close() error {
	var firstErr error
	if c.Auth != nil {
		c.Auth.Close()
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close Redis: %v", err)
		}
	}
	if err := connect.MongoDBDisconnect(c.MongoDBClient); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
