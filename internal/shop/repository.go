package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paintify/backend-paintify/internal/store"
)

// DataKey is the KV entry holding the business document.
const DataKey = "paintify:data"

const schemaVersion = 1

// Sentinel errors surfaced by repository operations.
var (
	ErrProductNotFound   = errors.New("shop: product not found")
	ErrInsufficientStock = errors.New("shop: insufficient stock")
)

type document struct {
	Version  int       `json:"version"`
	Products []Product `json:"products"`
	Sales    []Sale    `json:"sales"`
}

// Repository owns the shop document: catalog entries plus the sales ledger.
// All mutations hold an in-process mutex and persist the full document before
// the in-memory state is swapped, so a failed write changes nothing.
//
// When the backing store is reachable from more than one process, the cached
// document can go stale behind another writer. Shared mode re-reads the
// document from the store at the start of every mutation (under the write
// lock, inside the caller's cross-process lock) and before reads, so each
// operation works on the latest persisted state instead of the boot-time
// snapshot.
type Repository struct {
	kv     store.KV
	newID  func() string
	now    func() time.Time
	shared bool

	mu  sync.RWMutex
	doc document
}

// NewRepository loads the existing document from the store, or starts empty
// when none exists yet. A document with an unknown schema version is refused
// rather than silently migrated.
func NewRepository(ctx context.Context, kv store.KV) (*Repository, error) {
	if kv == nil {
		return nil, errors.New("shop: kv store is required")
	}
	r := &Repository{kv: kv, newID: uuid.NewString, now: time.Now}
	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// WithIDGenerator overrides id generation; tests use it for stable ids.
func (r *Repository) WithIDGenerator(gen func() string) {
	if gen != nil {
		r.newID = gen
	}
}

// WithNow allows tests to override the time provider.
func (r *Repository) WithNow(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// WithSharedStore marks the backing store as reachable from other processes.
// Mutations and reads then re-read the persisted document instead of trusting
// the cached copy.
func (r *Repository) WithSharedStore(shared bool) {
	r.shared = shared
}

// loadLocked replaces the cached document with the persisted one. A missing
// key yields an empty document. Callers hold the write lock (or own the
// repository exclusively, as NewRepository does).
func (r *Repository) loadLocked(ctx context.Context) error {
	raw, err := r.kv.Load(ctx, DataKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		r.doc = document{Version: schemaVersion, Products: []Product{}, Sales: []Sale{}}
		return nil
	}
	if err != nil {
		return err
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("shop: decode document: %w", err)
	}
	if doc.Version != schemaVersion {
		return fmt.Errorf("shop: unsupported document version %d (want %d)", doc.Version, schemaVersion)
	}
	if doc.Products == nil {
		doc.Products = []Product{}
	}
	if doc.Sales == nil {
		doc.Sales = []Sale{}
	}
	r.doc = doc
	return nil
}

// syncLocked refreshes the cached document in shared mode so the following
// mutation starts from the latest persisted state. Callers hold the write
// lock.
func (r *Repository) syncLocked(ctx context.Context) error {
	if !r.shared {
		return nil
	}
	return r.loadLocked(ctx)
}

// syncForRead refreshes the cache before a read in shared mode. A refresh
// failure keeps the last known snapshot; reads stay available through store
// hiccups.
func (r *Repository) syncForRead(ctx context.Context) {
	if !r.shared {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.loadLocked(ctx)
}

// Products returns a copy of the catalog.
func (r *Repository) Products(ctx context.Context) []Product {
	r.syncForRead(ctx)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, len(r.doc.Products))
	copy(out, r.doc.Products)
	return out
}

// GetProduct returns the product matching id.
func (r *Repository) GetProduct(ctx context.Context, id string) (Product, error) {
	r.syncForRead(ctx)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.doc.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

// AddProduct creates a product with a freshly generated id and persists the
// catalog.
func (r *Repository) AddProduct(ctx context.Context, attrs Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.syncLocked(ctx); err != nil {
		return Product{}, err
	}

	attrs.ID = r.newID()
	next := r.doc
	next.Products = append(append([]Product{}, r.doc.Products...), attrs)
	if err := r.persist(ctx, next); err != nil {
		return Product{}, err
	}
	return attrs, nil
}

// UpdateProduct merges the non-nil patch fields into the product matching id.
func (r *Repository) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.syncLocked(ctx); err != nil {
		return Product{}, err
	}

	idx := -1
	for i, p := range r.doc.Products {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Product{}, ErrProductNotFound
	}
	updated := patch.apply(r.doc.Products[idx])
	next := r.doc
	next.Products = append([]Product{}, r.doc.Products...)
	next.Products[idx] = updated
	if err := r.persist(ctx, next); err != nil {
		return Product{}, err
	}
	return updated, nil
}

// DeleteProduct removes the product matching id. Deleting an absent id is a
// no-op; existing sales keep their snapshots either way.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.syncLocked(ctx); err != nil {
		return err
	}

	filtered := make([]Product, 0, len(r.doc.Products))
	for _, p := range r.doc.Products {
		if p.ID != id {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == len(r.doc.Products) {
		return nil
	}
	next := r.doc
	next.Products = filtered
	return r.persist(ctx, next)
}

// Sales returns a copy of the ledger, newest first.
func (r *Repository) Sales(ctx context.Context) []Sale {
	r.syncForRead(ctx)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Sale, len(r.doc.Sales))
	copy(out, r.doc.Sales)
	return out
}

// RecordSale runs the read-compute-decrement-append sequence as one critical
// section. The build callback receives the current product snapshot and
// returns the sale to record; qty cans are taken from stock in the same
// step. The sale id and date are assigned here.
func (r *Repository) RecordSale(ctx context.Context, productID string, qty int64, build func(Product) (Sale, error)) (Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.syncLocked(ctx); err != nil {
		return Sale{}, err
	}

	idx := -1
	for i, p := range r.doc.Products {
		if p.ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Sale{}, ErrProductNotFound
	}
	product := r.doc.Products[idx]
	if qty > product.Quantity {
		return Sale{}, ErrInsufficientStock
	}

	sale, err := build(product)
	if err != nil {
		return Sale{}, err
	}
	sale.ID = r.newID()
	sale.Date = r.now().UTC()

	updated := product
	updated.Quantity -= qty

	next := r.doc
	next.Products = append([]Product{}, r.doc.Products...)
	next.Products[idx] = updated
	next.Sales = append([]Sale{sale}, r.doc.Sales...)
	if err := r.persist(ctx, next); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// persist writes the candidate document through to the store and swaps it in
// only once the write succeeded. Callers must hold the write lock.
func (r *Repository) persist(ctx context.Context, next document) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("shop: encode document: %w", err)
	}
	if err := r.kv.Save(ctx, DataKey, raw); err != nil {
		return err
	}
	r.doc = next
	return nil
}
