package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestOpenDisabledReturnsNop(t *testing.T) {
	t.Parallel()
	rec, err := Open(Config{Enabled: false}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if _, ok := rec.(NopRecorder); !ok {
		t.Fatalf("recorder = %T, want NopRecorder", rec)
	}
	if err := rec.RecordDelivery(context.Background(), Delivery{}); err != nil {
		t.Fatalf("nop RecordDelivery error: %v", err)
	}
}

func TestSQLiteRecordDelivery(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.db")
	rec, err := Open(Config{Enabled: true, Path: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer rec.Close()

	ctx := context.Background()
	deliveries := []Delivery{
		{At: time.Now(), ChannelID: "c1", GuildID: "g1", EntryDate: "2024-01-02", OK: true},
		{At: time.Now(), ChannelID: "c2", GuildID: "g1", EntryDate: "2024-01-02", OK: false, Error: "send failed"},
	}
	for _, d := range deliveries {
		if err := rec.RecordDelivery(ctx, d); err != nil {
			t.Fatalf("RecordDelivery error: %v", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var total, failed int
	if err := db.QueryRow(`SELECT COUNT(*) FROM deliveries`).Scan(&total); err != nil {
		t.Fatalf("count: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM deliveries WHERE ok = 0`).Scan(&failed); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if total != 2 || failed != 1 {
		t.Fatalf("total=%d failed=%d, want 2/1", total, failed)
	}
}

func TestSQLiteRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Enabled: true}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
