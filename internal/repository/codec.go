package repository

import (
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/marketplace-cart/internal/domain"
	"github.com/shopspring/decimal"
)

// cartItemJSON is the stored shape of a cart line item.
// Price is a JSON number on write and accepts a number or numeric string on read.
type cartItemJSON struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	ImageURL string      `json:"image_url"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

func EncodeCart(items []domain.CartItem) (string, error) {
	rows := make([]cartItemJSON, 0, len(items))
	for _, item := range items {
		rows = append(rows, mapDomainToCartItemJSON(item))
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}

	return string(data), nil
}

func DecodeCart(data string) ([]domain.CartItem, error) {
	var rows []cartItemJSON
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	items := make([]domain.CartItem, 0, len(rows))
	for _, row := range rows {
		item, err := mapCartItemJSONToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapCartItemJSONToDomain: %w", err)
		}

		items = append(items, item)
	}

	return items, nil
}

func mapDomainToCartItemJSON(item domain.CartItem) cartItemJSON {
	return cartItemJSON{
		ID:       item.ID,
		Title:    item.Title,
		ImageURL: item.ImageURL,
		Price:    json.Number(item.Price.String()),
		Quantity: item.Quantity,
	}
}

func mapCartItemJSONToDomain(row cartItemJSON) (domain.CartItem, error) {
	price := decimal.Zero
	if row.Price != "" {
		parsed, err := decimal.NewFromString(row.Price.String())
		if err != nil {
			return domain.CartItem{}, fmt.Errorf("price[%s] is not valid: %w", row.Price, err)
		}
		price = parsed
	}

	return domain.CartItem{
		Product: domain.Product{
			ID:       row.ID,
			Title:    row.Title,
			ImageURL: row.ImageURL,
			Price:    price,
		},
		Quantity: row.Quantity,
	}, nil
}
