package entity

import "errors"

// DefaultQuantity — количество товара, если мини-приложение его не указало.
const DefaultQuantity = 1

var (
	ErrEmptyProduct    = errors.New("empty product id")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// CartLine — позиция корзины: товар и количество для конкретного покупателя.
// Составной ключ — (UserID, ProductID).
type CartLine struct {
	UserID    int64
	ProductID string
	Quantity  int
}

// NewCartLine создаёт позицию корзины, проверяя её инварианты.
func NewCartLine(userID int64, productID string, quantity int) (*CartLine, error) {
	if productID == "" {
		return nil, ErrEmptyProduct
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	return &CartLine{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}, nil
}
