package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/paintify/backend-paintify/internal/ledger"
	"github.com/paintify/backend-paintify/internal/shop"
	"github.com/paintify/backend-paintify/internal/store"
)

func newTasksFixture(t *testing.T) (Tasks, *shop.Repository) {
	t.Helper()
	repo, err := shop.NewRepository(context.Background(), store.NewMemoryKV())
	require.NoError(t, err)
	tasks := Tasks{
		Repo:              repo,
		ExportDir:         t.TempDir(),
		LowStockThreshold: 10,
		Logger:            zerolog.Nop(),
	}
	return tasks, repo
}

func TestHandleLedgerArchiveWritesCSV(t *testing.T) {
	tasks, repo := newTasksFixture(t)
	ctx := context.Background()

	product, err := repo.AddProduct(ctx, shop.Product{Name: "Emulsion", LitersPerCan: 20, Quantity: 8, DP: 1000})
	require.NoError(t, err)
	_, err = repo.RecordSale(ctx, product.ID, 2, func(p shop.Product) (shop.Sale, error) {
		return shop.Sale{ProductID: p.ID, ProductName: p.Name, QuantitySold: 2}, nil
	})
	require.NoError(t, err)

	require.NoError(t, tasks.HandleLedgerArchive(ctx, nil))

	path := filepath.Join(tasks.ExportDir, ledger.ExportFilename(time.Now()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Date,Product,Quantity,Liters,Rate,Total Amount")
	require.Contains(t, string(data), "Emulsion")

	// A rerun replaces the archive rather than leaving temp files around.
	require.NoError(t, tasks.HandleLedgerArchive(ctx, nil))
	entries, err := os.ReadDir(tasks.ExportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestHandleLowStockScan(t *testing.T) {
	tasks, repo := newTasksFixture(t)
	ctx := context.Background()

	_, err := repo.AddProduct(ctx, shop.Product{Name: "Primer", LitersPerCan: 10, Quantity: 3})
	require.NoError(t, err)
	_, err = repo.AddProduct(ctx, shop.Product{Name: "Enamel", LitersPerCan: 4, Quantity: 50})
	require.NoError(t, err)

	require.NoError(t, tasks.HandleLowStockScan(ctx, nil))
}
