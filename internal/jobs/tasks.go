package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/paintify/backend-paintify/internal/ledger"
	"github.com/paintify/backend-paintify/internal/obs"
	"github.com/paintify/backend-paintify/internal/shop"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerArchive writes the full sales ledger to a CSV archive on disk.
	TaskLedgerArchive = "ledger:archive"
	// TaskLowStockScan counts products under the configured stock threshold.
	TaskLowStockScan = "catalog:lowstock"
)

// NewLedgerArchiveTask constructs the nightly archive task.
func NewLedgerArchiveTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerArchive, nil)
}

// NewLowStockScanTask constructs the hourly low-stock scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskLowStockScan, nil)
}

// Tasks bundles the handlers with their shared dependencies.
type Tasks struct {
	Repo              *shop.Repository
	ExportDir         string
	LowStockThreshold int64
	Logger            zerolog.Logger
}

// HandleLedgerArchive writes every recorded sale to a dated CSV file under
// ExportDir. Reruns on the same day overwrite the previous archive.
func (t Tasks) HandleLedgerArchive(ctx context.Context, _ *asynq.Task) error {
	sales := t.Repo.Sales(ctx)

	if err := os.MkdirAll(t.ExportDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	name := ledger.ExportFilename(time.Now())
	path := filepath.Join(t.ExportDir, name)

	f, err := os.CreateTemp(t.ExportDir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if err := ledger.WriteCSV(f, sales); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("write archive: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("publish archive: %w", err)
	}

	if obs.LedgerExportsTotal != nil {
		obs.LedgerExportsTotal.WithLabelValues("scheduled").Inc()
	}
	t.Logger.Info().Str("file", path).Int("sales", len(sales)).Msg("ledger archived")
	return nil
}

// HandleLowStockScan refreshes the low-stock gauge and logs the products that
// fell under the threshold so operators can reorder.
func (t Tasks) HandleLowStockScan(ctx context.Context, _ *asynq.Task) error {
	products := t.Repo.Products(ctx)

	var low int64
	for _, p := range products {
		if obs.StockLevel != nil {
			obs.StockLevel.WithLabelValues(p.Name).Set(float64(p.Quantity))
		}
		if p.Quantity < t.LowStockThreshold {
			low++
			t.Logger.Warn().
				Str("product", p.Name).
				Int64("quantity", p.Quantity).
				Int64("threshold", t.LowStockThreshold).
				Msg("low stock")
		}
	}
	if obs.LowStockProducts != nil {
		obs.LowStockProducts.Set(float64(low))
	}
	return nil
}
