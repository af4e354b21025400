// Package http provides request and response helpers for JSON handlers.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	var payload struct {
//	    Customer string `json:"customer"`
//	}
//	if err := req.Bind(&payload); err != nil { ... }
//
//	roots := req.QueryAll("root")
//	id := req.RouteParam("id") // requires the chi router
//
// # Response
//
// Successful responses are wrapped as {"data": ...}, errors as
// {"message": "..."}.
//
//	res := gohttp.NewResponse(w)
//	res.Success(order)             // 200
//	res.Created(order)             // 201
//	res.NotFound()                 // 404 {"message":"Not found."}
//	res.Unprocessable(err.Error()) // 422
package http
