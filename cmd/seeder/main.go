// cmd/seeder publishes product-add events for a batch of carts, to exercise
// replay on startup.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/reybrally/cart-service/internal/adapters/backend"
	"github.com/reybrally/cart-service/internal/app/commands"
	"github.com/reybrally/cart-service/internal/config"
	"github.com/reybrally/cart-service/internal/domain/cart"
	"github.com/reybrally/cart-service/internal/logging"
)

type seedConfig struct {
	Events int   `env:"SEED_EVENTS" envDefault:"1000"`
	Carts  int   `env:"SEED_CARTS" envDefault:"50"`
	Seed   int64 `env:"SEED_RANDOM"`
}

var catalog = []string{"widget", "gadget", "sprocket", "gizmo", "doohickey", "thingamajig"}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	var sc seedConfig
	if err := env.Parse(&sc); err != nil {
		log.Fatalf("seed config: %v", err)
	}
	if sc.Carts <= 0 {
		sc.Carts = 1
	}
	if sc.Seed == 0 {
		sc.Seed = time.Now().UnixNano()
	}
	logging.InitLogger("warn")

	eventLog, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("event log: %v", err)
	}
	defer eventLog.Close()

	bus := commands.NewBus(commands.NewProductAddHandler(eventLog, commands.HandlerConfig{
		Producer: "seeder",
		Retries:  cfg.EventLog.PublishRetries,
		Backoff:  cfg.EventLog.PublishBackoff,
	}))

	rnd := rand.New(rand.NewSource(sc.Seed))
	start := time.Now()
	for i := 1; i <= sc.Events; i++ {
		cmd := commands.ProductAdd{
			CartID:  fmt.Sprint(rnd.Intn(sc.Carts) + 1),
			Product: cart.Product{Name: catalog[rnd.Intn(len(catalog))]},
		}
		if err := bus.Dispatch(ctx, cmd); err != nil {
			log.Fatalf("event %d: %v", i, err)
		}
		if i%100 == 0 {
			log.Printf("published %d/%d", i, sc.Events)
		}
	}

	log.Printf("OK: %d events across %d carts in %s (backend=%s, seed=%d)",
		sc.Events, sc.Carts, time.Since(start).Round(time.Millisecond), cfg.EventLog.Backend, sc.Seed)
}
