// Package backend opens the persistence side of the application: the
// record store chosen by configuration and, optionally, the AMQP publisher
// that ledger changes go out through.
package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/postgres"
	"fintrack/internal/store/sqlite"
)

type Backend struct {
	Store store.Store
	// Publisher is nil when publishing is disabled or the broker was
	// unreachable at startup.
	Publisher ledger.Publisher

	closers []func() error
}

// Close releases everything Open acquired, newest first.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

type opener func(ctx context.Context, o Options) (store.Store, error)

var openers = map[Kind]opener{
	Memory: func(context.Context, Options) (store.Store, error) {
		return memory.New(), nil
	},
	SQLite: func(_ context.Context, o Options) (store.Store, error) {
		return sqlite.Open(o.SQLitePath)
	},
	Postgres: func(ctx context.Context, o Options) (store.Store, error) {
		return postgres.Open(ctx, o.PostgresURL)
	},
}

// Open creates the store described by o. A broker that cannot be reached
// is logged and leaves the backend without a publisher.
func Open(ctx context.Context, o Options, logger *log.Logger) (*Backend, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStore)

	if err := o.Validate(); err != nil {
		return nil, err
	}
	st, err := openers[o.Kind](ctx, o)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", o.Kind, err)
	}
	logger.Info("Record store opened", log.FieldBackend, o.Kind)

	b := &Backend{Store: st, closers: []func() error{st.Close}}
	if !o.Broker.Enabled() {
		return b, nil
	}
	client, err := amqp.NewClient(o.Broker.URL, o.Broker.Exchange, o.Broker.Queue, logger)
	if err != nil {
		logger.Warn("Broker unavailable, changes will not be published", log.FieldError, err)
		return b, nil
	}
	logger.Info("Publishing changes", "exchange", o.Broker.Exchange, "queue", o.Broker.Queue)
	b.Publisher = client
	b.closers = append(b.closers, client.Close)
	return b, nil
}
