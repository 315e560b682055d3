package backend

import (
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/config"
)

// Kind names a record store implementation.
type Kind string

const (
	Memory   Kind = config.BackendMemory
	SQLite   Kind = config.BackendSQLite
	Postgres Kind = config.BackendPostgres
)

func Kinds() []Kind { return []Kind{Memory, SQLite, Postgres} }

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown store backend %q", s)
}

// Broker locates the AMQP exchange changes are published to. The zero
// value disables publishing.
type Broker struct {
	URL      string
	Exchange string
	Queue    string
}

func (b Broker) Enabled() bool { return b.URL != "" }

type Options struct {
	Kind        Kind
	SQLitePath  string
	PostgresURL string
	Broker      Broker
}

// OptionsFrom picks the persistence settings out of the application
// configuration.
func OptionsFrom(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, errors.New("nil config")
	}
	kind, err := ParseKind(cfg.StoreBackend)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Kind:        kind,
		SQLitePath:  cfg.SQLiteDBPath,
		PostgresURL: cfg.PostgresURL,
		Broker: Broker{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
			Queue:    cfg.AMQPQueue,
		},
	}, nil
}

func (o Options) Validate() error {
	switch o.Kind {
	case Memory:
	case SQLite:
		if o.SQLitePath == "" {
			return errors.New("sqlite backend needs a database path")
		}
	case Postgres:
		if o.PostgresURL == "" {
			return errors.New("postgres backend needs a connection URL")
		}
	default:
		return fmt.Errorf("unknown store backend %q", o.Kind)
	}
	if o.Broker.Enabled() && (o.Broker.Exchange == "" || o.Broker.Queue == "") {
		return errors.New("broker needs an exchange and a queue")
	}
	return nil
}
