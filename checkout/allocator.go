package checkout

import "checkout-svc/gateway"

type SharedCosts struct {
	Shipping int64 // cents
	Tax      int64 // cents
}

type Allocation struct {
	ProductID string
	Amount    int64 // cents: line total plus proportional shipping and tax
}

// Allocate splits a cart's shared costs across its line items in
// proportion to each item's line total. Every item except the last gets a
// rounded proportional share; the last item takes the remainder, so the
// allocations always sum exactly to cart total + shipping + tax.
func Allocate(items []gateway.LineItem, costs SharedCosts) []Allocation {
	if len(items) == 0 {
		return []Allocation{}
	}

	lineTotals := make([]int64, len(items))
	var cartTotal int64
	for i, item := range items {
		lineTotals[i] = item.UnitPrice * item.Quantity
		cartTotal += lineTotals[i]
	}
	grandTotal := cartTotal + costs.Shipping + costs.Tax

	allocations := make([]Allocation, len(items))
	var assigned int64
	for i, item := range items {
		if i == len(items)-1 {
			allocations[i] = Allocation{ProductID: item.ProductID, Amount: grandTotal - assigned}
			break
		}
		amount := lineTotals[i]
		if cartTotal > 0 {
			amount += roundedShare(costs.Shipping, lineTotals[i], cartTotal)
			amount += roundedShare(costs.Tax, lineTotals[i], cartTotal)
		}
		allocations[i] = Allocation{ProductID: item.ProductID, Amount: amount}
		assigned += amount
	}
	return allocations
}

// roundedShare is cost * lineTotal / cartTotal rounded to the nearest cent.
func roundedShare(cost, lineTotal, cartTotal int64) int64 {
	return (cost*lineTotal + cartTotal/2) / cartTotal
}

// cartTotal sums the declared line totals of the metadata cart.
func cartTotal(items []gateway.LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPrice * item.Quantity
	}
	return total
}
