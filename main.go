package main

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/km-arc/go-chaindi/app"
	"github.com/km-arc/go-chaindi/config"
	"github.com/km-arc/go-chaindi/container"
	"github.com/km-arc/go-chaindi/order"
)

// PaymentProvider wires the order-processing graph: ledger, mailer, a
// config-selected payment gateway, and the processor chained on top of them.
type PaymentProvider struct {
	container.BaseProvider
}

func (p *PaymentProvider) Register(c *container.Container) error {
	err := c.Define("ledger").
		Chain(container.Construct(order.NewLedger)).
		Dispose(func(v any) error { return v.(*order.Ledger).Flush() }).
		Apply()
	if err != nil {
		return err
	}

	err = c.Define("mailer").
		Chain(container.Construct(func(cfg *config.Config) *order.Mailer {
			return order.NewMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.From)
		}, container.Use("config"))).
		Apply()
	if err != nil {
		return err
	}

	err = c.Define("gateway").
		Chain(container.Construct(func(cfg *config.Config) (order.PaymentGateway, error) {
			return buildGateway(cfg)
		}, container.Use("config"))).
		Dispose(closeGateway).
		Apply()
	if err != nil {
		return err
	}

	// The processor picks up the ledger through a void Invoke, and the
	// configure phase notes the wiring into the ledger singleton.
	return c.Define("orders").
		Chain(
			container.Construct(order.NewProcessor, container.Use("gateway"), container.Use("mailer")),
			container.Invoke("SetLedger", container.Use("ledger")),
		).
		Configure(container.ConfigureRef("ledger", func(proc, dep any) error {
			dep.(*order.Ledger).Note("processor online: " + proc.(*order.Processor).Gateway().Name())
			return nil
		})).
		Apply()
}

func buildGateway(cfg *config.Config) (order.PaymentGateway, error) {
	switch cfg.Payment.Provider {
	case "paypal":
		return order.NewPayPal(cfg.Payment.PayPalKey, cfg.Payment.PayPalFeeRate), nil
	case "stripe":
		g := order.NewStripe(cfg.Payment.StripeKey)
		g.SetTimeoutMS(cfg.Payment.StripeTimeout)
		return g, nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Payment.Provider)
	}
}

func closeGateway(v any) error {
	type closer interface{ Close() error }
	if c, ok := v.(closer); ok {
		return c.Close()
	}
	return nil
}

// gatewayChain builds a replacement chain for a named provider, used by the
// runtime-swap endpoint.
func gatewayChain(provider string) container.Chain {
	switch provider {
	case "stripe":
		return container.NewChain(
			container.Construct(func(cfg *config.Config) *order.StripeGateway {
				return order.NewStripe(cfg.Payment.StripeKey)
			}, container.Use("config")),
			container.Invoke("SetTimeoutMS", container.Val(2500)),
		)
	default:
		return container.NewChain(
			container.Construct(func(cfg *config.Config) *order.PayPalGateway {
				return order.NewPayPal(cfg.Payment.PayPalKey, cfg.Payment.PayPalFeeRate)
			}, container.Use("config")),
		)
	}
}

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	if err := application.Register(&PaymentProvider{}); err != nil {
		log.Fatalf("providers: %v", err)
	}
	if err := application.Boot(); err != nil {
		log.Fatalf("boot: %v", err)
	}

	c := application.Container
	r := application.Router()

	r.Prefix("/api/v1", func(api *app.Router) {

		// POST /api/v1/orders?customer=...&amount=...
		api.Post("/orders", func(w http.ResponseWriter, req *http.Request) {
			res := app.NewResponse(w)
			amount, err := strconv.ParseFloat(req.URL.Query().Get("amount"), 64)
			if err != nil {
				res.Error(http.StatusBadRequest, "amount must be a number")
				return
			}
			proc, err := container.Resolve[*order.Processor](c, "orders")
			if err != nil {
				res.Error(http.StatusInternalServerError, err.Error())
				return
			}
			o := order.New(req.URL.Query().Get("customer"), amount)
			if err := proc.Process(o); err != nil {
				res.Error(http.StatusUnprocessableEntity, err.Error())
				return
			}
			res.Created(o)
		})

		// GET /api/v1/ledger
		api.Get("/ledger", func(w http.ResponseWriter, req *http.Request) {
			res := app.NewResponse(w)
			ledger, err := container.Resolve[*order.Ledger](c, "ledger")
			if err != nil {
				res.Error(http.StatusInternalServerError, err.Error())
				return
			}
			res.Success(ledger.Entries)
		})
	})

	// PUT /admin/gateway/{provider} — swap the gateway binding at runtime.
	// The processor binding is refreshed so its next resolution re-wires
	// against the new gateway; orders already in flight keep the old one.
	r.Put("/admin/gateway/{provider}", func(w http.ResponseWriter, req *http.Request) {
		res := app.NewResponse(w)
		provider := app.Param(req, "provider")
		if err := c.Replace("gateway", gatewayChain(provider)); err != nil {
			res.Error(http.StatusInternalServerError, err.Error())
			return
		}
		if err := c.Refresh("orders"); err != nil {
			res.Error(http.StatusInternalServerError, err.Error())
			return
		}
		res.Success(map[string]any{"gateway": provider})
	})

	if err := application.Run(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}
