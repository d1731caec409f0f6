// storefront is a command-line client for poking at a running store
// backend: it wires the full state stack (persisted session + cart, API
// client, checkout orchestrator) and runs one action per invocation.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/pcforge/storefront/internal/api"
	"github.com/pcforge/storefront/internal/cart"
	"github.com/pcforge/storefront/internal/catalog"
	"github.com/pcforge/storefront/internal/checkout"
	"github.com/pcforge/storefront/internal/config"
	"github.com/pcforge/storefront/internal/domain"
	"github.com/pcforge/storefront/internal/kv"
	"github.com/pcforge/storefront/internal/session"
	"github.com/pcforge/storefront/pkg/logger"
)

func main() {
	var (
		action   = flag.String("action", "cart-show", "one of: categories | products | product | cart-show | cart-add | cart-remove | login | logout | checkout | orders")
		slug     = flag.String("slug", "", "product slug for -action product|cart-add")
		product  = flag.Int64("product", 0, "product id for -action cart-remove")
		category = flag.Int64("category", 0, "category filter for -action products")
		search   = flag.String("search", "", "search term for -action products")
		username = flag.String("username", "", "username for -action login")
		password = flag.String("password", "", "password for -action login")
		name     = flag.String("name", "", "full name for -action checkout")
		email    = flag.String("email", "", "email for -action checkout")
		address  = flag.String("address", "", "address for -action checkout")
		city     = flag.String("city", "", "city for -action checkout")
		zip      = flag.String("zip", "", "zip code for -action checkout")
		shipping = flag.Int("shipping", 0, "shipping option index for -action checkout")
	)
	flag.Parse()

	cfg := config.Load()
	log := logger.New("storefront", cfg.Debug)
	ctx := context.Background()

	var state kv.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		state = kv.NewRedisStore(client, "storefront")
	} else {
		bolt, err := kv.OpenBolt(cfg.StatePath)
		if err != nil {
			log.Fatal().Err(err).Msg("opening state file failed")
		}
		defer bolt.Close()
		state = bolt
	}

	backend := api.NewClient(cfg.BackendURL, cfg.RequestTimeout, logger.New("api", cfg.Debug))
	sessions := session.NewStore(state, logger.New("session", cfg.Debug))
	carts := cart.NewStore(state, cart.NewRemote(backend, logger.New("cart-sync", cfg.Debug)), sessions, logger.New("cart", cfg.Debug))
	sessions.AttachReconciler(carts)

	shop := catalog.NewService(backend, logger.New("catalog", cfg.Debug))
	orchestrator := checkout.NewOrchestrator(carts, sessions, backend,
		checkout.SimulatedGateway{Delay: cfg.GatewayDelay}, logger.New("checkout", cfg.Debug))

	var err error
	switch *action {
	case "categories":
		err = printJSON(func() (any, error) { return shop.CategoryTree(ctx) })
	case "products":
		err = printJSON(func() (any, error) {
			return shop.Products(ctx, catalog.Query{CategoryID: *category, Search: *search})
		})
	case "product":
		err = printJSON(func() (any, error) { return shop.ProductBySlug(ctx, *slug) })
	case "cart-show":
		fmt.Printf("items: %d  shipping: %.0f  total: %.0f\n",
			len(carts.Items()), carts.ShippingPrice(), carts.TotalPrice())
		err = printJSON(func() (any, error) { return carts.Items(), nil })
	case "cart-add":
		prod, perr := shop.ProductBySlug(ctx, *slug)
		if perr != nil {
			err = perr
			break
		}
		err = carts.AddItem(ctx, lineItem(prod))
	case "cart-remove":
		err = carts.RemoveItem(ctx, *product)
	case "login":
		var token string
		token, err = backend.Token(ctx, *username, *password)
		if err == nil {
			err = sessions.Login(ctx, token, *username)
		}
	case "logout":
		err = sessions.Logout(ctx)
	case "checkout":
		if *shipping < 0 || *shipping >= len(checkout.ShippingOptions) {
			err = fmt.Errorf("shipping option out of range")
			break
		}
		var result *checkout.Result
		result, err = orchestrator.Submit(ctx, checkout.Form{
			Delivery: domain.Profile{
				FullName: *name,
				Email:    *email,
				Address:  *address,
				City:     *city,
				ZipCode:  *zip,
			},
			Shipping: checkout.ShippingOptions[*shipping],
			Payment:  checkout.PaymentTransfer,
		})
		if err == nil {
			fmt.Printf("order accepted, total %.0f\n", result.Order.TotalAmount)
		}
	case "orders":
		token, ok := sessions.Token()
		if !ok {
			err = fmt.Errorf("not logged in")
			break
		}
		err = printJSON(func() (any, error) { return backend.MyOrders(ctx, token) })
	default:
		err = fmt.Errorf("unknown action %q", *action)
	}

	if err != nil {
		log.Error().Err(err).Str("action", *action).Msg("action failed")
		os.Exit(1)
	}
}

func lineItem(p *domain.Product) domain.LineItem {
	return domain.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Slug:      p.Slug,
		Stock:     p.Stock,
	}
}

func printJSON(fn func() (any, error)) error {
	v, err := fn()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
