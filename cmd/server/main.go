package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pokestore_back_end/internal/audit"
	"pokestore_back_end/internal/auth"
	"pokestore_back_end/internal/cache"
	"pokestore_back_end/internal/cart"
	"pokestore_back_end/internal/checkout"
	"pokestore_back_end/internal/config"
	"pokestore_back_end/internal/database"
	"pokestore_back_end/internal/handlers"
	"pokestore_back_end/internal/invoice"
	"pokestore_back_end/internal/logger"
	"pokestore_back_end/internal/notify"
	"pokestore_back_end/internal/payment"
	"pokestore_back_end/internal/routes"
	"pokestore_back_end/internal/search"
	"pokestore_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("❌ Logger: %v", err)
	}
	defer logg.Sync()

	if cfg.EnvFileLoaded {
		logg.Info("✅ Fichier .env chargé avec succès")
	} else {
		logg.Warn("⚠️ Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatal("❌ arrêt sur erreur", zap.Error(err))
	}
	logg.Info("👋 serveur arrêté")
}

func run(ctx context.Context, cfg *config.Config, logg *zap.Logger) error {
	gin.SetMode(cfg.Server.Mode)

	conns, err := database.Connect(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer conns.Close()

	// Stockage
	var (
		products  store.ProductStore
		orders    store.OrderStore
		observers []checkout.StockObserver
	)
	if conns.Products != nil {
		scyllaProducts := store.NewScyllaProductStore(conns.Products, logg)
		products = scyllaProducts
		orders = store.NewScyllaOrderStore(conns.Orders, logg)
		observers = append(observers, scyllaProducts)
	} else {
		mem := store.NewMemoryStore()
		products, orders = mem, mem
	}
	var indexer *search.Indexer
	if conns.Elastic != nil {
		indexer = search.NewIndexer(conns.Elastic, cfg.Elastic.Index, logg)
		observers = append(observers, indexer)
	}
	catalog := cache.NewProductCache(products, conns.Redis, logg)

	// Factures
	var archive invoice.Archiver
	if conns.MinIO != nil {
		archive = invoice.NewMinioArchive(conns.MinIO, cfg.MinIO.Bucket, cfg.MinIO.LinkExpiry)
	}
	invoices := invoice.NewService(invoice.Config{
		StoreName:    cfg.Invoice.StoreName,
		StoreAddress: cfg.Invoice.StoreAddress,
		UPIPayee:     cfg.Invoice.UPIPayee,
	}, invoice.NewChromeRenderer(cfg.Invoice.ChromePath, cfg.Invoice.RenderTimeout), archive, logg)

	// Notifications
	var sender notify.Sender
	if cfg.SMTPEnabled() {
		sender = notify.NewMailer(notify.MailerConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		logg.Warn("⚠️ SMTP non configuré, e-mails journalisés uniquement")
		sender = notify.NewLogSender(logg.Sugar().Infof)
	}
	dispatcher := notify.NewDispatcher(notify.Config{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		SendTimeout: cfg.Notify.SendTimeout,
		AdminEmail:  cfg.SMTP.AdminEmail,
		StoreName:   cfg.Invoice.StoreName,
	}, sender, logg, notify.WithInvoices(invoices))

	// Checkout
	opts := []checkout.Option{
		checkout.WithStoreTimeout(cfg.Checkout.StoreTimeout),
		checkout.WithStockObservers(observers...),
	}
	handlerOpts := []handlers.Option{handlers.WithInvoices(invoices)}
	if indexer != nil {
		handlerOpts = append(handlerOpts, handlers.WithSearch(indexer))
	}

	if cfg.Stripe.SecretKey != "" {
		stripe.Key = cfg.Stripe.SecretKey
		opts = append(opts, checkout.WithPayments(payment.NewStripeInitiator(cfg.Stripe.Currency)))
		logg.Info("✅ Stripe initialisé")
	} else {
		logg.Warn("⚠️ STRIPE_SECRET_KEY absent, paiement en ligne sans PaymentIntent")
	}

	var auditLog *audit.Logger
	if conns.Mongo != nil {
		sink := audit.NewMongoSink(conns.Mongo.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection))
		if err := sink.EnsureIndexes(ctx); err != nil {
			logg.Warn("⚠️ index audit non créés", zap.Error(err))
		}
		auditLog = audit.NewLogger(sink, audit.DefaultTimeout, logg)
		defer auditLog.Wait()
		opts = append(opts, checkout.WithAuditor(auditLog))
		handlerOpts = append(handlerOpts, handlers.WithAudit(auditLog))
	}

	authn := auth.ContextAuthenticator{}
	svc := checkout.NewService(authn, catalog, orders, dispatcher, logg, opts...)

	carts := cache.NewRedisCartStore(conns.Redis)
	handlerOpts = append(handlerOpts, handlers.WithCartFeed(carts))
	manager := cart.NewManager(authn, carts, catalog, logg)

	h := handlers.New(catalog, manager, svc, logg, handlerOpts...)
	router := routes.NewRouter(h, routes.Config{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Tokens:          auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL),
		APILimiter:      cache.NewRateLimiter(conns.Redis, "api", cfg.Checkout.APILimitPerMinute, time.Minute),
		CheckoutLimiter: cache.NewRateLimiter(conns.Redis, "checkout", cfg.Checkout.RateLimitPerMinute, time.Minute),
		CartLimiter:     cache.NewRateLimiter(conns.Redis, "cart_add", cfg.Checkout.CartLimitPerMinute, time.Minute),
	}, logg)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	dispatcher.Start(gctx)

	g.Go(func() error {
		logg.Info("🚀 Serveur PokéStore lancé", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// plus aucune requête en vol : on vide la file d'e-mails
		dispatcher.Close()
		return err
	})

	return g.Wait()
}
