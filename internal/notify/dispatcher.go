// Package notify envoie les e-mails de commande hors du chemin de la requête.
//
// Le checkout ne fait que mettre un événement en file ; des workers l'envoient ensuite.
// Une file pleine ou fermée est rapportée à l'appelant, qui se contente de la journaliser.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pokestore_back_end/internal/errs"
	"pokestore_back_end/internal/models"

	"go.uber.org/zap"
)

type Kind int

const (
	KindOrderPlaced Kind = iota
	KindStatusChanged
)

func (k Kind) String() string {
	switch k {
	case KindOrderPlaced:
		return "order_placed"
	case KindStatusChanged:
		return "status_changed"
	}
	return "unknown"
}

type Event struct {
	Kind     Kind
	Order    models.Order
	Previous models.OrderStatus
}

type Email struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Attachment struct {
	Name string
	Data []byte
}

type Sender interface {
	Send(ctx context.Context, e Email) error
}

// InvoiceRenderer produit la facture PDF jointe à l'e-mail client
type InvoiceRenderer interface {
	RenderInvoice(ctx context.Context, order models.Order) ([]byte, error)
}

type Config struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
	AdminEmail  string
	StoreName   string
}

func (c *Config) withDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	if c.StoreName == "" {
		c.StoreName = "PokéStore"
	}
}

type Dispatcher struct {
	cfg      Config
	sender   Sender
	invoices InvoiceRenderer
	logger   *zap.Logger

	queue chan Event
	base  context.Context

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

type Option func(*Dispatcher)

func WithInvoices(r InvoiceRenderer) Option {
	return func(d *Dispatcher) { d.invoices = r }
}

func NewDispatcher(cfg Config, sender Sender, logger *zap.Logger, opts ...Option) *Dispatcher {
	cfg.withDefaults()
	d := &Dispatcher{
		cfg:    cfg,
		sender: sender,
		logger: logger,
		queue:  make(chan Event, cfg.QueueSize),
		base:   context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start lance les workers. Les envois ne sont pas interrompus par l'annulation de ctx :
// c'est Close qui arrête la file, après l'avoir vidée.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	d.base = context.WithoutCancel(ctx)

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("📬 dispatcher de notifications démarré",
		zap.Int("workers", d.cfg.Workers),
		zap.Int("queue_size", d.cfg.QueueSize))
}

// Run démarre, attend l'annulation de ctx puis vide la file
func (d *Dispatcher) Run(ctx context.Context) error {
	d.Start(ctx)
	<-ctx.Done()
	d.Close()
	return nil
}

// Close refuse les nouveaux événements, laisse les workers vider la file et les attend
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("📪 dispatcher de notifications arrêté")
}

func (d *Dispatcher) NotifyOrderPlaced(order models.Order) error {
	return d.enqueue(Event{Kind: KindOrderPlaced, Order: order})
}

func (d *Dispatcher) NotifyStatusChanged(order models.Order, previous models.OrderStatus) error {
	return d.enqueue(Event{Kind: KindStatusChanged, Order: order, Previous: previous})
}

func (d *Dispatcher) enqueue(ev Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return fmt.Errorf("%w: dispatcher closed", errs.ErrNotificationFailed)
	}
	select {
	case d.queue <- ev:
		return nil
	default:
		return fmt.Errorf("%w: queue full", errs.ErrNotificationFailed)
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for ev := range d.queue {
		d.handle(ev)
	}
	d.logger.Debug("worker notifications terminé", zap.Int("worker", id))
}

func (d *Dispatcher) handle(ev Event) {
	log := d.logger.With(
		zap.String("event", ev.Kind.String()),
		zap.String("order_id", ev.Order.ID))

	switch ev.Kind {
	case KindOrderPlaced:
		// client et opérateur sont indépendants : l'échec de l'un n'empêche pas l'autre
		d.send(log, "customer", d.customerConfirmation(ev.Order))
		if d.cfg.AdminEmail != "" {
			d.send(log, "admin", d.adminAlert(ev.Order))
		}
	case KindStatusChanged:
		d.send(log, "customer", d.statusUpdate(ev.Order, ev.Previous))
	}
}

func (d *Dispatcher) send(log *zap.Logger, audience string, build func(ctx context.Context) (Email, error)) {
	ctx, cancel := context.WithTimeout(d.base, d.cfg.SendTimeout)
	defer cancel()

	email, err := build(ctx)
	if err != nil {
		log.Error("❌ génération e-mail échouée", zap.String("audience", audience), zap.Error(err))
		return
	}
	if email.To == "" {
		log.Warn("⚠️ e-mail sans destinataire ignoré", zap.String("audience", audience))
		return
	}

	if err := d.sender.Send(ctx, email); err != nil {
		log.Error("❌ envoi e-mail échoué",
			zap.String("audience", audience),
			zap.String("to", email.To),
			zap.Error(fmt.Errorf("%w: %w", errs.ErrNotificationFailed, err)))
		return
	}
	log.Info("📧 e-mail envoyé", zap.String("audience", audience), zap.String("to", email.To))
}
