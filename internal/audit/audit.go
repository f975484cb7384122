// Package audit écrit la piste d'audit des commandes sans bloquer l'appelant.
package audit

import (
	"context"
	"sync"
	"time"

	"pokestore_back_end/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultTimeout = 5 * time.Second

type Filter struct {
	UserID     string
	Action     string
	ResourceID string
	Limit      int64
}

type Sink interface {
	Insert(ctx context.Context, entry models.AuditLog) error
	Recent(ctx context.Context, f Filter) ([]models.AuditLog, error)
}

// Logger écrit chaque entrée dans sa propre goroutine, bornée par un timeout
type Logger struct {
	sink    Sink
	timeout time.Duration
	logger  *zap.Logger

	wg sync.WaitGroup
}

func NewLogger(sink Sink, timeout time.Duration, logger *zap.Logger) *Logger {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Logger{sink: sink, timeout: timeout, logger: logger}
}

func (l *Logger) Log(entry models.AuditLog) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		if err := l.sink.Insert(ctx, entry); err != nil {
			l.logger.Error("❌ enregistrement audit échoué",
				zap.String("action", entry.Action),
				zap.String("resource_id", entry.ResourceID),
				zap.Error(err))
		}
	}()
}

func (l *Logger) Recent(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return l.sink.Recent(ctx, f)
}

// Wait attend les écritures en cours (arrêt du serveur)
func (l *Logger) Wait() {
	l.wg.Wait()
}
