package backend

import (
	"context"
	"fmt"

	"txview/internal/amqp"
	"txview/internal/log"
	"txview/internal/services"
	"txview/internal/store"
	"txview/internal/store/memory"
	"txview/internal/store/sqlite"
)

const defaultDataDirectory = "data"

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: log.OrDefault(logger, log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.DataDirectory == "" {
		config.DataDirectory = defaultDataDirectory
	}

	var (
		s       store.Store
		rec     store.ApprovalEventRecorder
		closers []func() error
	)
	switch config.Type {
	case SQLiteBackend:
		db, err := f.openSQLite(ctx, config)
		if err != nil {
			return nil, err
		}
		s, rec = db, db
		closers = append(closers, db.Close)
	case MemoryBackend:
		mem, err := memory.NewFromFiles(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
		}
		s, rec = mem, mem
		f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", config.DataDirectory)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	var publisher services.Publisher
	if client := f.connectAMQP(ctx, config); client != nil {
		publisher = client
		closers = append(closers, client.Close)
	}
	approvals := services.NewApprovalService(s, publisher, f.logger)
	for _, c := range closers {
		approvals.OnClose(c)
	}

	return &BackendResult{
		Store:     s,
		Approvals: approvals,
		Recorder:  rec,
		Cleanup:   approvals.Close,
	}, nil
}

// openSQLite opens the database and seeds it from the data directory (or the
// built-in fixture) the first time.
func (f *DefaultFactory) openSQLite(ctx context.Context, config Config) (*sqlite.Store, error) {
	db, err := sqlite.Open(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
	}

	empty, err := db.Empty(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if empty {
		seed, err := memory.NewFromFiles(config.DataDirectory)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("load seed data: %w", err)
		}
		employees, txs := seed.Snapshot()
		if err := db.Seed(ctx, employees, txs); err != nil {
			db.Close()
			return nil, err
		}
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath, "seeded", empty)
	return db, nil
}

// connectAMQP returns nil when AMQP is not configured or unreachable; the
// backend then runs without approval events.
func (f *DefaultFactory) connectAMQP(ctx context.Context, config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without approval events", log.FieldError, err)
		return nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
