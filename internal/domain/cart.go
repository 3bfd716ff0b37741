package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Product struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
}

type CartItem struct {
	Product

	Quantity int
}

// AddItem returns items with p appended at quantity 1.
// If p is already present, its quantity is incremented instead.
func AddItem(items []CartItem, p Product) []CartItem {
	if IndexOf(items, p.ID) >= 0 {
		return IncrementItem(items, p.ID)
	}

	result := make([]CartItem, 0, len(items)+1)
	result = append(result, items...)

	return append(result, CartItem{Product: p, Quantity: 1})
}

func IncrementItem(items []CartItem, id string) []CartItem {
	result := make([]CartItem, len(items))

	for i, item := range items {
		if item.ID == id {
			item.Quantity++
		}
		result[i] = item
	}

	return result
}

// DecrementItem drops every item whose quantity is no longer positive,
// not only the decremented one.
func DecrementItem(items []CartItem, id string) []CartItem {
	result := make([]CartItem, 0, len(items))

	for _, item := range items {
		if item.ID == id {
			item.Quantity--
		}
		if item.Quantity > 0 {
			result = append(result, item)
		}
	}

	return result
}

func IndexOf(items []CartItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func Count(items []CartItem) int {
	var n int
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func Total(items []CartItem, unit currency.Unit) Money {
	amount := decimal.Zero
	for _, item := range items {
		amount = amount.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return Money{Amount: amount, Currency: unit}
}
