package service

import "errors"

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrUnauthenticated   = errors.New("unauthenticated")    // 401
	ErrNotFound          = errors.New("not found")          // 404
	ErrConflict          = errors.New("conflict")           // 409
	ErrProductNotFound   = errors.New("product not found")  // 404
	ErrEmptyCart         = errors.New("cart is empty")      // 422
	ErrInvalidTransition = errors.New("invalid transition") // 422
	ErrCheckoutFailed    = errors.New("checkout failed")    // 502
)
