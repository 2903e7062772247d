package shop

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paintify/backend-paintify/internal/store"
)

func newTestRepo(t *testing.T) (*Repository, *store.MemoryKV) {
	t.Helper()
	kv := store.NewMemoryKV()
	repo, err := NewRepository(context.Background(), kv)
	require.NoError(t, err)
	return repo, kv
}

func TestNewRepositoryStartsEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)
	require.Empty(t, repo.Products(context.Background()))
	require.Empty(t, repo.Sales(context.Background()))
}

func TestNewRepositoryLoadsExistingDocument(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	first, err := NewRepository(ctx, kv)
	require.NoError(t, err)
	product, err := first.AddProduct(ctx, Product{Name: "Distemper", LitersPerCan: 5, Quantity: 12})
	require.NoError(t, err)

	second, err := NewRepository(ctx, kv)
	require.NoError(t, err)
	got, err := second.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, "Distemper", got.Name)
	require.EqualValues(t, 12, got.Quantity)
}

func TestNewRepositoryRefusesUnknownSchemaVersion(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	raw, err := json.Marshal(map[string]any{"version": 99})
	require.NoError(t, err)
	require.NoError(t, kv.Save(ctx, DataKey, raw))

	_, err = NewRepository(ctx, kv)
	require.ErrorContains(t, err, "unsupported document version")
}

func TestProductLifecycle(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	product, err := repo.AddProduct(ctx, Product{Name: "Emulsion", LitersPerCan: 20, Quantity: 10, DP: 1000})
	require.NoError(t, err)
	require.NotEmpty(t, product.ID)

	name := "Emulsion Premium"
	qty := int64(15)
	updated, err := repo.UpdateProduct(ctx, product.ID, ProductPatch{Name: &name, Quantity: &qty})
	require.NoError(t, err)
	require.Equal(t, "Emulsion Premium", updated.Name)
	require.EqualValues(t, 15, updated.Quantity)
	require.Equal(t, 20.0, updated.LitersPerCan)

	_, err = repo.UpdateProduct(ctx, "missing", ProductPatch{Name: &name})
	require.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, repo.DeleteProduct(ctx, product.ID))
	_, err = repo.GetProduct(ctx, product.ID)
	require.ErrorIs(t, err, ErrProductNotFound)

	// Deleting an id that no longer exists stays a no-op.
	require.NoError(t, repo.DeleteProduct(ctx, product.ID))
}

func TestRecordSaleDecrementsStockAndPrepends(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	fixed := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	repo.WithNow(func() time.Time { return fixed })

	product, err := repo.AddProduct(ctx, Product{Name: "Primer", LitersPerCan: 4, Quantity: 10})
	require.NoError(t, err)

	first, err := repo.RecordSale(ctx, product.ID, 3, func(p Product) (Sale, error) {
		return Sale{ProductID: p.ID, ProductName: p.Name, QuantitySold: 3}, nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, fixed, first.Date)

	second, err := repo.RecordSale(ctx, product.ID, 2, func(p Product) (Sale, error) {
		require.EqualValues(t, 7, p.Quantity)
		return Sale{ProductID: p.ID, ProductName: p.Name, QuantitySold: 2}, nil
	})
	require.NoError(t, err)

	got, err := repo.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 5, got.Quantity)

	sales := repo.Sales(ctx)
	require.Len(t, sales, 2)
	require.Equal(t, second.ID, sales[0].ID)
	require.Equal(t, first.ID, sales[1].ID)
}

func TestRecordSaleRejectsInsufficientStock(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	product, err := repo.AddProduct(ctx, Product{Name: "Enamel", Quantity: 2})
	require.NoError(t, err)

	_, err = repo.RecordSale(ctx, product.ID, 3, func(p Product) (Sale, error) {
		t.Fatal("build must not run when stock is short")
		return Sale{}, nil
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	got, err := repo.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.Quantity)
	require.Empty(t, repo.Sales(context.Background()))
}

func TestRecordSaleUnknownProduct(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.RecordSale(context.Background(), "missing", 1, func(p Product) (Sale, error) {
		return Sale{}, nil
	})
	require.ErrorIs(t, err, ErrProductNotFound)
}

type failingKV struct {
	store.KV
	fail bool
}

func (f *failingKV) Save(ctx context.Context, key string, doc []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.KV.Save(ctx, key, doc)
}

func TestFailedPersistLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: store.NewMemoryKV()}
	repo, err := NewRepository(ctx, kv)
	require.NoError(t, err)

	product, err := repo.AddProduct(ctx, Product{Name: "Thinner", Quantity: 4})
	require.NoError(t, err)

	kv.fail = true
	_, err = repo.RecordSale(ctx, product.ID, 1, func(p Product) (Sale, error) {
		return Sale{ProductID: p.ID, QuantitySold: 1}, nil
	})
	require.Error(t, err)

	got, err := repo.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 4, got.Quantity)
	require.Empty(t, repo.Sales(context.Background()))
}

func TestSaleSnapshotSurvivesCatalogEdits(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	product, err := repo.AddProduct(ctx, Product{Name: "Original Name", LitersPerCan: 10, Quantity: 5})
	require.NoError(t, err)

	sale, err := repo.RecordSale(ctx, product.ID, 1, func(p Product) (Sale, error) {
		return Sale{ProductID: p.ID, ProductName: p.Name, QuantitySold: 1, LitersPerCan: p.LitersPerCan}, nil
	})
	require.NoError(t, err)

	renamed := "Renamed"
	_, err = repo.UpdateProduct(ctx, product.ID, ProductPatch{Name: &renamed})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteProduct(ctx, product.ID))

	sales := repo.Sales(ctx)
	require.Len(t, sales, 1)
	require.Equal(t, sale.ID, sales[0].ID)
	require.Equal(t, "Original Name", sales[0].ProductName)
	require.Equal(t, 10.0, sales[0].LitersPerCan)
}

func TestSharedRepositoriesSerializeWrites(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	first, err := NewRepository(ctx, kv)
	require.NoError(t, err)
	first.WithSharedStore(true)

	second, err := NewRepository(ctx, kv)
	require.NoError(t, err)
	second.WithSharedStore(true)

	product, err := first.AddProduct(ctx, Product{Name: "Weathercoat", LitersPerCan: 20, Quantity: 50})
	require.NoError(t, err)

	sell := func(p Product) (Sale, error) {
		return Sale{ProductID: p.ID, ProductName: p.Name, QuantitySold: 5}, nil
	}
	_, err = first.RecordSale(ctx, product.ID, 5, sell)
	require.NoError(t, err)
	_, err = second.RecordSale(ctx, product.ID, 5, sell)
	require.NoError(t, err)

	// Either handle sees both sales and the twice decremented stock.
	require.Len(t, first.Sales(ctx), 2)
	require.Len(t, second.Sales(ctx), 2)
	got, err := first.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 40, got.Quantity)

	// A fresh load from the store agrees.
	reloaded, err := NewRepository(ctx, kv)
	require.NoError(t, err)
	require.Len(t, reloaded.Sales(ctx), 2)
	got, err = reloaded.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 40, got.Quantity)
}

func TestSharedReaderSeesOtherWriter(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	writer, err := NewRepository(ctx, kv)
	require.NoError(t, err)
	writer.WithSharedStore(true)

	reader, err := NewRepository(ctx, kv)
	require.NoError(t, err)
	reader.WithSharedStore(true)
	require.Empty(t, reader.Products(ctx))

	product, err := writer.AddProduct(ctx, Product{Name: "Satin Finish", Quantity: 8})
	require.NoError(t, err)

	got, err := reader.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, "Satin Finish", got.Name)
}
