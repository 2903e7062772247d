package main

import (
	"context"
	"log"
	"time"

	"github.com/paintify/backend-paintify/internal/auth"
	"github.com/paintify/backend-paintify/internal/config"
	"github.com/paintify/backend-paintify/internal/shop"
	"github.com/paintify/backend-paintify/internal/store"
)

// Seeds a local file store with a demo account and a starter catalog so the
// console has something to show on first run.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver != "file" {
		log.Fatalf("seeder only supports the file store, got %q", cfg.StoreDriver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := store.NewFileKV(cfg.StoreFileDir)
	if err != nil {
		log.Fatalf("open file store: %v", err)
	}

	seedAccount(ctx, cfg, kv)
	seedCatalog(ctx, kv)

	log.Println("seeding completed")
}

func seedAccount(ctx context.Context, cfg *config.Config, kv store.KV) {
	svc, err := auth.NewService(auth.Config{
		Store:          kv,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}
	_, err = svc.Signup(ctx, "Demo Owner", "owner@paintify.local", "paintify-demo")
	if err != nil {
		log.Printf("demo account: %v (already seeded?)", err)
		return
	}
	log.Println("seeded account owner@paintify.local")
}

func seedCatalog(ctx context.Context, kv store.KV) {
	repo, err := shop.NewRepository(ctx, kv)
	if err != nil {
		log.Fatalf("load shop document: %v", err)
	}
	if len(repo.Products(ctx)) > 0 {
		log.Println("catalog already seeded, skipping")
		return
	}

	products := []shop.Product{
		{Name: "Interior Emulsion Matt", LitersPerCan: 20, Quantity: 40, DP: 5200, BillPercent: 10, CDPercent: 5, GSTPercent: 18},
		{Name: "Exterior Weathercoat", LitersPerCan: 10, Quantity: 25, DP: 3400, BillPercent: 12, CDPercent: 3, GSTPercent: 18},
		{Name: "Wood Primer", LitersPerCan: 4, Quantity: 60, DP: 950, BillPercent: 8, CDPercent: 2, GSTPercent: 18},
		{Name: "Synthetic Enamel Gloss", LitersPerCan: 1, Quantity: 120, DP: 310, BillPercent: 5, CDPercent: 0, GSTPercent: 18},
	}
	for _, p := range products {
		if _, err := repo.AddProduct(ctx, p); err != nil {
			log.Fatalf("seed product %q: %v", p.Name, err)
		}
		log.Printf("seeded product %s", p.Name)
	}
}
