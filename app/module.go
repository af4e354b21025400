package app

import (
	"github.com/km-arc/go-inject/framework/container"
)

// Module registers the order-processing graph:
//
//	API ── Orders ─┬─ OrderStore
//	   │           ├─ Mailer ── Logger
//	   │           ├─ Clock
//	   │           └─ Logger
//	   └── Router
type Module struct{}

func (Module) Name() string { return "orders module" }

func (Module) Register(r *container.Registry) error {
	return r.Install(container.Constructors{
		NewClock,
		NewMemoryStore,
		NewMailer,
		NewOrders,
		NewAPI,
	})
}
