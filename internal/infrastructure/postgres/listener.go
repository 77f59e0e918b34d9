package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// NotificationHandler receives the payload of a LISTEN notification.
type NotificationHandler func(ctx context.Context, payload string)

// Listener holds a dedicated connection on a Postgres notification channel.
// The user-deletion trigger notifies it with the deleted user's id, which
// covers deletions that bypass the application entirely.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	handler NotificationHandler
	logger  *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewListener(pool *pgxpool.Pool, channel string, handler NotificationHandler, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		pool:    pool,
		channel: channel,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start launches the listen loop. The loop re-acquires its connection after
// errors so a dropped connection does not end the feed.
func (l *Listener) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go l.loop(ctx)
}

// Stop cancels the loop and waits for it to exit.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	<-l.done
}

func (l *Listener) loop(ctx context.Context) {
	defer close(l.done)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			l.logger.Warn("notification listener disconnected, retrying",
				zap.String("channel", l.channel),
				zap.Error(err))
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}
	l.logger.Info("listening for storage notifications", zap.String("channel", l.channel))

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.handler(ctx, notification.Payload)
	}
}
