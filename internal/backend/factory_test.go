package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"txview/internal/config"
	"txview/internal/log"
	"txview/internal/store/sqlite"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost/", AMQPExchange: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config must be rejected")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("unknown backend must be rejected")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		DataDir:      "seed",
		SQLiteDBPath: "db/txview.db",
		AMQPURL:      "amqp://localhost/",
		AMQPExchange: "ex",
		AMQPQueue:    "q",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.DataDirectory != "seed" || cfg.SQLiteDBPath != "db/txview.db" || cfg.AMQPQueue != "q" {
		t.Errorf("unexpected backend config %+v", cfg)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	_, total, err := res.Store.TransactionPage(ctx, 0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if total != 18 {
		t.Fatalf("expected fixture data, got %d transactions", total)
	}
	if err := res.Approvals.SetApproval(ctx, "tx-002", true); err != nil {
		t.Fatal(err)
	}
}

func TestCreateSQLiteBackendSeedsOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	seedDir := filepath.Join(dir, "seed")
	if err := os.MkdirAll(seedDir, 0755); err != nil {
		t.Fatal(err)
	}
	employees := `[{"id":"1","firstName":"Ada","lastName":"Lovelace"}]`
	txs := `[{"id":"a","amount":"10.50","employee":{"id":"1","firstName":"Ada","lastName":"Lovelace"},"merchant":"Books","date":"2025-01-02","approved":false}]`
	if err := os.WriteFile(filepath.Join(seedDir, "employees.json"), []byte(employees), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(seedDir, "transactions.json"), []byte(txs), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Type: SQLiteBackend, DataDirectory: seedDir, SQLiteDBPath: filepath.Join(dir, "db", "txview.db")}
	for i := 0; i < 2; i++ {
		res, err := NewFactory(log.Discard()).CreateBackend(ctx, cfg)
		if err != nil {
			t.Fatalf("create #%d: %v", i, err)
		}
		if _, ok := res.Store.(*sqlite.Store); !ok {
			t.Fatalf("expected *sqlite.Store, got %T", res.Store)
		}
		got, total, err := res.Store.TransactionPage(ctx, 0, 5)
		if err != nil {
			t.Fatal(err)
		}
		if total != 1 || got[0].ID != "a" || got[0].Employee.FullName() != "Ada Lovelace" {
			t.Fatalf("create #%d: unexpected contents %d %+v", i, total, got)
		}
		if err := res.Cleanup(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	if err == nil {
		t.Fatal("expected an error")
	}
}
