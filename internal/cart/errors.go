package cart

import "errors"

var (
	// ErrEmptyCoupon is returned when the submitted coupon code is blank.
	ErrEmptyCoupon = errors.New("coupon code is empty")
	// ErrInvalidCoupon is returned when the code matches no known coupon. The
	// cart is left untouched.
	ErrInvalidCoupon = errors.New("coupon code is invalid")
	// ErrInvalidQuantity is returned by AddItem for quantities outside [MinQuantity, MaxQuantity].
	ErrInvalidQuantity = errors.New("quantity out of range")
	// ErrInvalidItem is returned by AddItem for lines without an id or with a negative price.
	ErrInvalidItem = errors.New("line item is invalid")
)
