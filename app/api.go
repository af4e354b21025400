package app

import (
	"fmt"
	"net/http"

	"github.com/alecthomas/errors"

	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/http/validation"
	"github.com/km-arc/go-inject/framework/routing"
)

// API serves orders over HTTP under /orders. Constructing it mounts the
// routes on the shared router.
type API struct {
	orders *Orders
}

func NewAPI(orders *Orders, router *routing.Router) *API {
	api := &API{orders: orders}
	router.Prefix("/orders", func(r *routing.Router) {
		r.Get("/", api.index)
		r.Post("/", api.store)
		r.Get("/{id}", api.show)
	})
	return api
}

type placeRequest struct {
	Customer string `json:"customer"`
	Items    []Item `json:"items"`
}

// fields flattens the payload for the validator. Item quantities are
// checked by Orders.Place.
func (p placeRequest) fields() (map[string]string, validation.Rules) {
	data := map[string]string{"customer": p.Customer}
	rules := validation.Rules{"customer": "required|email|max:254"}
	for i, item := range p.Items {
		key := fmt.Sprintf("items.%d.sku", i)
		data[key] = item.SKU
		rules[key] = "required|alpha_dash"
	}
	return data, rules
}

func (a *API) index(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	orders, err := a.orders.List(r.Context())
	if err != nil {
		res.Error(http.StatusInternalServerError, err.Error())
		return
	}
	res.Success(orders)
}

func (a *API) store(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	var body placeRequest
	if err := gohttp.NewRequest(r).Bind(&body); errors.Is(err, gohttp.ErrBodyTooLarge) {
		res.Error(http.StatusRequestEntityTooLarge, err.Error())
		return
	} else if err != nil {
		res.BadRequest(err.Error())
		return
	}
	if v := validation.Make(body.fields()); v.Fails() {
		res.ValidationError(v.Errors())
		return
	}
	order, err := a.orders.Place(r.Context(), body.Customer, body.Items)
	if err != nil {
		res.Unprocessable(err.Error())
		return
	}
	res.Created(order)
}

func (a *API) show(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	order, err := a.orders.Get(r.Context(), gohttp.NewRequest(r).RouteParam("id"))
	if errors.Is(err, ErrOrderNotFound) {
		res.NotFound(err.Error())
		return
	} else if err != nil {
		res.Error(http.StatusInternalServerError, err.Error())
		return
	}
	res.Success(order)
}
