package api

import "encoding/json"

// =============================================================================
// Account Types
// =============================================================================

// Account is a brokerage account as reported by the account list endpoint.
// Snapshots are immutable; the directory replaces them wholesale on reload.
type Account struct {
	AccountID     string `json:"accountId"`
	AccountIDKey  string `json:"accountIdKey"`
	AccountDesc   string `json:"accountDesc"`
	AccountType   string `json:"accountType"`
	AccountStatus string `json:"accountStatus"`
	Default       bool   `json:"default,omitempty"`
}

// accountListResponse is the envelope for the account list endpoint.
type accountListResponse struct {
	AccountListResponse struct {
		Accounts struct {
			Account []Account `json:"Account"`
		} `json:"Accounts"`
	} `json:"AccountListResponse"`
}

// Balance is the computed balance snapshot for one account.
type Balance struct {
	AccountID         string  `json:"accountId"`
	AccountType       string  `json:"accountType"`
	TotalAccountValue float64 `json:"totalAccountValue"`
	NetCash           float64 `json:"netCash"`
	CashBuyingPower   float64 `json:"cashBuyingPower"`
	MarginBuyingPower float64 `json:"marginBuyingPower"`
}

// balanceResponse is the envelope for the balance endpoint.
type balanceResponse struct {
	BalanceResponse struct {
		AccountID   string `json:"accountId"`
		AccountType string `json:"accountType"`
		Computed    struct {
			NetCash           float64 `json:"netCash"`
			CashBuyingPower   float64 `json:"cashBuyingPower"`
			MarginBuyingPower float64 `json:"marginBuyingPower"`
			RealTimeValues    struct {
				TotalAccountValue float64 `json:"totalAccountValue"`
			} `json:"RealTimeValues"`
		} `json:"Computed"`
	} `json:"BalanceResponse"`
}

// Position is one holding in a portfolio.
type Position struct {
	Symbol       string  `json:"symbol"`
	SecurityType string  `json:"securityType"`
	Quantity     float64 `json:"quantity"`
	PricePaid    float64 `json:"pricePaid"`
	LastTrade    float64 `json:"lastTrade"`
	MarketValue  float64 `json:"marketValue"`
	TotalGain    float64 `json:"totalGain"`
}

// portfolioResponse is the envelope for the portfolio endpoint.
type portfolioResponse struct {
	PortfolioResponse struct {
		AccountPortfolio []struct {
			AccountID string `json:"accountId"`
			Position  []struct {
				Product struct {
					Symbol       string `json:"symbol"`
					SecurityType string `json:"securityType"`
				} `json:"Product"`
				Quantity    float64 `json:"quantity"`
				PricePaid   float64 `json:"pricePaid"`
				MarketValue float64 `json:"marketValue"`
				TotalGain   float64 `json:"totalGain"`
				Quick       struct {
					LastTrade float64 `json:"lastTrade"`
				} `json:"Quick"`
			} `json:"Position"`
		} `json:"AccountPortfolio"`
	} `json:"PortfolioResponse"`
}

// =============================================================================
// Quote Types
// =============================================================================

// Quote is a market data snapshot for a single symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	CompanyName   string  `json:"companyName"`
	LastTrade     float64 `json:"lastTrade"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	BidSize       int64   `json:"bidSize"`
	AskSize       int64   `json:"askSize"`
	TotalVolume   int64   `json:"totalVolume"`
	ChangeClose   float64 `json:"changeClose"`
	ChangePercent float64 `json:"changeClosePercentage"`
	High52        float64 `json:"high52"`
	Low52         float64 `json:"low52"`
}

// quoteResponse is the envelope for the quote endpoint. Unknown symbols
// come back as Messages instead of QuoteData.
type quoteResponse struct {
	QuoteResponse struct {
		QuoteData []struct {
			All struct {
				CompanyName   string  `json:"companyName"`
				LastTrade     float64 `json:"lastTrade"`
				Bid           float64 `json:"bid"`
				Ask           float64 `json:"ask"`
				BidSize       int64   `json:"bidSize"`
				AskSize       int64   `json:"askSize"`
				TotalVolume   int64   `json:"totalVolume"`
				ChangeClose   float64 `json:"changeClose"`
				ChangePercent float64 `json:"changeClosePercentage"`
				High52        float64 `json:"high52"`
				Low52         float64 `json:"low52"`
			} `json:"All"`
			Product struct {
				Symbol string `json:"symbol"`
			} `json:"Product"`
		} `json:"QuoteData"`
		Messages struct {
			Message []struct {
				Description string `json:"description"`
				Type        string `json:"type"`
			} `json:"Message"`
		} `json:"Messages"`
	} `json:"QuoteResponse"`
}

// =============================================================================
// Option Chain Types
// =============================================================================

// OptionContract is one side (call or put) of an option pair. OSIKey is the
// opaque contract identifier; it is passed verbatim as the option symbol of
// an order draft.
type OptionContract struct {
	OSIKey       string  `json:"osiKey"`
	Symbol       string  `json:"symbol"`
	StrikePrice  float64 `json:"strikePrice"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	LastPrice    float64 `json:"lastPrice"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"openInterest"`
	Greeks       Greeks  `json:"OptionGreeks"`
}

// Greeks carries the option sensitivity values the chain endpoint reports.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	IV    float64 `json:"iv"`
}

// OptionPair groups the call and put sides at one strike. Either side may
// be absent.
type OptionPair struct {
	Strike float64
	Call   *OptionContract
	Put    *OptionContract
}

// optionChainResponse is the envelope for the option chain endpoint.
type optionChainResponse struct {
	OptionChainResponse struct {
		OptionPair []struct {
			Call *OptionContract `json:"Call"`
			Put  *OptionContract `json:"Put"`
		} `json:"OptionPair"`
	} `json:"OptionChainResponse"`
}

// ExpirationDate is one expiry the broker offers for a symbol. Selected is
// the broker's nearest-to-today flag.
type ExpirationDate struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Day        int    `json:"day"`
	ExpiryType string `json:"expiryType"`
	Selected   bool   `json:"selected,omitempty"`
}

// ExpirationDates is the ordered expiry list plus the broker-flagged
// nearest date. Nearest is nil when the broker returned no dates.
type ExpirationDates struct {
	Dates   []ExpirationDate
	Nearest *ExpirationDate
}

// expirationDateResponse is the envelope for the expiration date endpoint.
type expirationDateResponse struct {
	OptionExpireDateResponse struct {
		ExpirationDate []ExpirationDate `json:"ExpirationDate"`
	} `json:"OptionExpireDateResponse"`
}

// =============================================================================
// Order Types
// =============================================================================

// Order kind discriminators used as the wire orderType.
const (
	OrderTypeEquity = "EQ"
	OrderTypeOption = "OPTN"
)

// Product identifies the instrument of an order leg.
type Product struct {
	Symbol       string `json:"symbol"`
	SecurityType string `json:"securityType"`
}

// OrderInstrument is one leg of an order payload.
type OrderInstrument struct {
	Product      Product `json:"Product"`
	OrderAction  string  `json:"orderAction"`
	QuantityType string  `json:"quantityType"`
	Quantity     int     `json:"quantity"`
}

// OrderDetail carries the pricing and session terms of an order payload.
type OrderDetail struct {
	AllOrNone     bool              `json:"allOrNone"`
	PriceType     string            `json:"priceType"`
	OrderTerm     string            `json:"orderTerm"`
	MarketSession string            `json:"marketSession"`
	LimitPrice    string            `json:"limitPrice,omitempty"`
	StopPrice     string            `json:"stopPrice,omitempty"`
	Instrument    []OrderInstrument `json:"Instrument"`
}

// OrderPayload is the wire-ready order body shared verbatim between a
// preview request and the place request that consumes its preview id.
type OrderPayload struct {
	OrderType     string        `json:"orderType"`
	ClientOrderID string        `json:"clientOrderId"`
	Order         []OrderDetail `json:"Order"`
}

// previewIDEntry wraps a preview id on the wire. The id is numeric in
// broker responses; json.Number preserves it exactly on the round trip.
type previewIDEntry struct {
	PreviewID json.Number `json:"previewId"`
}

// previewOrderRequest is the envelope for the order preview endpoint.
type previewOrderRequest struct {
	PreviewOrderRequest OrderPayload `json:"PreviewOrderRequest"`
}

// placeOrderPayload is an OrderPayload plus the preview ids being consumed.
type placeOrderPayload struct {
	OrderPayload
	PreviewIDs []previewIDEntry `json:"PreviewIds"`
}

// placeOrderRequest is the envelope for the order place endpoint.
type placeOrderRequest struct {
	PlaceOrderRequest placeOrderPayload `json:"PlaceOrderRequest"`
}

// OrderEstimate is the broker's preview summary of cost and fees.
type OrderEstimate struct {
	EstimatedCommission  float64 `json:"estimatedCommission"`
	EstimatedTotalAmount float64 `json:"estimatedTotalAmount"`
}

// PreviewResult is the outcome of a successful order preview: the one-time
// preview id and the broker's cost estimate.
type PreviewResult struct {
	PreviewID string
	Estimate  OrderEstimate
}

// OrderLeg is one leg of a broker-owned order.
type OrderLeg struct {
	Symbol       string  `json:"symbol"`
	SecurityType string  `json:"securityType"`
	OrderAction  string  `json:"orderAction"`
	Quantity     float64 `json:"orderedQuantity"`
	FilledQty    float64 `json:"filledQuantity"`
}

// Order is the broker's authoritative order representation. It is never
// constructed locally except as decoded from broker responses.
type Order struct {
	OrderID    int64      `json:"orderId"`
	OrderType  string     `json:"orderType"`
	Status     string     `json:"status"`
	PriceType  string     `json:"priceType"`
	OrderTerm  string     `json:"orderTerm"`
	LimitPrice float64    `json:"limitPrice"`
	PlacedTime int64      `json:"placedTime"`
	Legs       []OrderLeg `json:"legs"`
}

// ordersListResponse is the envelope for the orders list endpoint.
type ordersListResponse struct {
	OrdersResponse struct {
		Order []orderDTO `json:"Order"`
	} `json:"OrdersResponse"`
}

// orderGetResponse is the envelope for the single-order endpoint.
type orderGetResponse struct {
	OrdersResponse struct {
		Order []orderDTO `json:"Order"`
	} `json:"OrdersResponse"`
}

// orderDTO is the nested wire shape of a broker order.
type orderDTO struct {
	OrderID     int64  `json:"orderId"`
	OrderType   string `json:"orderType"`
	OrderDetail []struct {
		Status     string  `json:"status"`
		PriceType  string  `json:"priceType"`
		OrderTerm  string  `json:"orderTerm"`
		LimitPrice float64 `json:"limitPrice"`
		PlacedTime int64   `json:"placedTime"`
		Instrument []struct {
			Product         Product `json:"Product"`
			OrderAction     string  `json:"orderAction"`
			OrderedQuantity float64 `json:"orderedQuantity"`
			FilledQuantity  float64 `json:"filledQuantity"`
		} `json:"Instrument"`
	} `json:"OrderDetail"`
}

// toOrder flattens the wire shape into the domain Order.
func (d *orderDTO) toOrder() Order {
	o := Order{
		OrderID:   d.OrderID,
		OrderType: d.OrderType,
	}
	for _, detail := range d.OrderDetail {
		if o.Status == "" {
			o.Status = detail.Status
			o.PriceType = detail.PriceType
			o.OrderTerm = detail.OrderTerm
			o.LimitPrice = detail.LimitPrice
			o.PlacedTime = detail.PlacedTime
		}
		for _, inst := range detail.Instrument {
			o.Legs = append(o.Legs, OrderLeg{
				Symbol:       inst.Product.Symbol,
				SecurityType: inst.Product.SecurityType,
				OrderAction:  inst.OrderAction,
				Quantity:     inst.OrderedQuantity,
				FilledQty:    inst.FilledQuantity,
			})
		}
	}
	return o
}

// CancelConfirmation is the broker's acknowledgement of a cancel request.
type CancelConfirmation struct {
	AccountID  string `json:"accountId"`
	OrderID    int64  `json:"orderId"`
	CancelTime int64  `json:"cancelTime"`
}

// cancelOrderRequest is the envelope for the cancel endpoint.
type cancelOrderRequest struct {
	CancelOrderRequest struct {
		OrderID int64 `json:"orderId"`
	} `json:"CancelOrderRequest"`
}

// cancelOrderResponse is the envelope for the cancel endpoint response.
type cancelOrderResponse struct {
	CancelOrderResponse CancelConfirmation `json:"CancelOrderResponse"`
}
