package trading

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"etr/internal/api"
)

// OrderKind discriminates the two independently tracked workflow tracks.
type OrderKind string

const (
	// KindEquity is the equity order track.
	KindEquity OrderKind = "EQUITY"
	// KindOption is the options order track.
	KindOption OrderKind = "OPTION"
)

// Order vocabulary accepted by the broker.
var (
	equityActions  = []string{"BUY", "SELL", "BUY_TO_COVER", "SELL_SHORT"}
	optionActions  = []string{"BUY_OPEN", "BUY_CLOSE", "SELL_OPEN", "SELL_CLOSE"}
	priceTypes     = []string{"MARKET", "LIMIT", "STOP", "STOP_LIMIT"}
	orderTerms     = []string{"GOOD_FOR_DAY", "GOOD_UNTIL_CANCEL", "IMMEDIATE_OR_CANCEL", "FILL_OR_KILL"}
	marketSessions = []string{"REGULAR", "EXTENDED"}
)

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Draft is an order request before it is previewed. Drafts carry no
// client order id; the workflow stamps one at preview time.
type Draft interface {
	Kind() OrderKind
	validate() error
	payload(clientOrderID string) api.OrderPayload
}

// EquityDraft describes an equity order to preview.
type EquityDraft struct {
	Symbol        string
	OrderAction   string
	PriceType     string
	LimitPrice    string
	StopPrice     string
	OrderTerm     string
	MarketSession string
	AllOrNone     bool
	Quantity      int
}

// Kind returns KindEquity.
func (d EquityDraft) Kind() OrderKind { return KindEquity }

func (d EquityDraft) validate() error {
	if strings.TrimSpace(d.Symbol) == "" {
		return &api.ValidationError{Msg: "symbol is required"}
	}
	if !oneOf(d.OrderAction, equityActions) {
		return &api.ValidationError{Msg: "order action must be one of " + strings.Join(equityActions, ", ")}
	}
	return validateTerms(d.Quantity, d.PriceType, d.LimitPrice, d.StopPrice, d.OrderTerm, d.MarketSession)
}

func (d EquityDraft) payload(clientOrderID string) api.OrderPayload {
	return api.OrderPayload{
		OrderType:     api.OrderTypeEquity,
		ClientOrderID: clientOrderID,
		Order: []api.OrderDetail{{
			AllOrNone:     d.AllOrNone,
			PriceType:     d.PriceType,
			OrderTerm:     defaultString(d.OrderTerm, "GOOD_FOR_DAY"),
			MarketSession: defaultString(d.MarketSession, "REGULAR"),
			LimitPrice:    d.LimitPrice,
			StopPrice:     d.StopPrice,
			Instrument: []api.OrderInstrument{{
				Product: api.Product{
					Symbol:       strings.ToUpper(strings.TrimSpace(d.Symbol)),
					SecurityType: "EQ",
				},
				OrderAction:  d.OrderAction,
				QuantityType: "QUANTITY",
				Quantity:     d.Quantity,
			}},
		}},
	}
}

// OptionDraft describes a single-leg options order to preview. The option
// symbol is the opaque instrument key from a chain lookup, passed verbatim.
type OptionDraft struct {
	OptionSymbol string
	OrderAction  string
	PriceType    string
	LimitPrice   string
	OrderTerm    string
	Quantity     int
}

// Kind returns KindOption.
func (d OptionDraft) Kind() OrderKind { return KindOption }

func (d OptionDraft) validate() error {
	if strings.TrimSpace(d.OptionSymbol) == "" {
		return &api.ValidationError{Msg: "option symbol is required"}
	}
	if !oneOf(d.OrderAction, optionActions) {
		return &api.ValidationError{Msg: "order action must be one of " + strings.Join(optionActions, ", ")}
	}
	return validateTerms(d.Quantity, d.PriceType, d.LimitPrice, "", d.OrderTerm, "")
}

func (d OptionDraft) payload(clientOrderID string) api.OrderPayload {
	return api.OrderPayload{
		OrderType:     api.OrderTypeOption,
		ClientOrderID: clientOrderID,
		Order: []api.OrderDetail{{
			PriceType:     d.PriceType,
			OrderTerm:     defaultString(d.OrderTerm, "GOOD_FOR_DAY"),
			MarketSession: "REGULAR",
			LimitPrice:    d.LimitPrice,
			Instrument: []api.OrderInstrument{{
				Product: api.Product{
					Symbol:       strings.TrimSpace(d.OptionSymbol),
					SecurityType: "OPTN",
				},
				OrderAction:  d.OrderAction,
				QuantityType: "QUANTITY",
				Quantity:     d.Quantity,
			}},
		}},
	}
}

// validateTerms checks the pricing fields shared by both draft kinds.
func validateTerms(quantity int, priceType, limitPrice, stopPrice, orderTerm, marketSession string) error {
	if quantity <= 0 {
		return &api.ValidationError{Msg: "quantity must be positive"}
	}
	if !oneOf(priceType, priceTypes) {
		return &api.ValidationError{Msg: "price type must be one of " + strings.Join(priceTypes, ", ")}
	}
	if (priceType == "LIMIT" || priceType == "STOP_LIMIT") && limitPrice == "" {
		return &api.ValidationError{Msg: "limit price is required for " + priceType + " orders"}
	}
	if (priceType == "STOP" || priceType == "STOP_LIMIT") && stopPrice == "" {
		return &api.ValidationError{Msg: "stop price is required for " + priceType + " orders"}
	}
	if orderTerm != "" && !oneOf(orderTerm, orderTerms) {
		return &api.ValidationError{Msg: "order term must be one of " + strings.Join(orderTerms, ", ")}
	}
	if marketSession != "" && !oneOf(marketSession, marketSessions) {
		return &api.ValidationError{Msg: "market session must be one of " + strings.Join(marketSessions, ", ")}
	}
	return nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// OrderPlacer is the slice of the API client the workflow needs.
type OrderPlacer interface {
	PreviewOrder(ctx context.Context, accountIDKey string, payload api.OrderPayload) (*api.PreviewResult, error)
	PlaceOrder(ctx context.Context, accountIDKey string, payload api.OrderPayload, previewID string) (*api.Order, error)
}

// PendingPreview is a live preview: the payload exactly as previewed, the
// one-time preview id issued for it, and the account it is bound to. It is
// consumed by the place call that uses it, successful or not, or by an
// explicit discard, or by the next preview of the same kind.
type PendingPreview struct {
	Kind         OrderKind
	AccountIDKey string
	Payload      api.OrderPayload
	PreviewID    string
	Estimate     api.OrderEstimate
	IssuedAt     time.Time
}

// Workflow is the preview-then-place state machine. The two order kinds
// are tracked independently; at most one PendingPreview is live per kind.
type Workflow struct {
	mu       sync.Mutex
	client   OrderPlacer
	dir      *Directory
	pending  map[OrderKind]*PendingPreview
	inflight map[OrderKind]bool
	lastID   map[OrderKind]string
	now      func() time.Time
}

// NewWorkflow creates a workflow over the given order endpoints and
// account directory.
func NewWorkflow(client OrderPlacer, dir *Directory) *Workflow {
	return &Workflow{
		client:   client,
		dir:      dir,
		pending:  make(map[OrderKind]*PendingPreview),
		inflight: make(map[OrderKind]bool),
		lastID:   make(map[OrderKind]string),
		now:      time.Now,
	}
}

// clientOrderID derives the idempotency identifier stamped on a draft at
// preview time. It must ride along unchanged to the place call.
func (w *Workflow) clientOrderID() string {
	return fmt.Sprintf("etr%d", w.now().UnixMilli())
}

// Preview validates a draft locally, sends it to the broker, and on
// success stores the resulting PendingPreview. Any prior PendingPreview of
// the same kind is discarded unconditionally first: a fresh preview always
// issues a fresh token, and the old token becomes unusable. On any failure
// no PendingPreview remains for the kind.
func (w *Workflow) Preview(ctx context.Context, draft Draft) (*PendingPreview, error) {
	kind := draft.Kind()

	accountIDKey := w.dir.Active()
	if accountIDKey == "" {
		return nil, &api.PreconditionError{Msg: "no active account"}
	}

	if err := draft.validate(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.inflight[kind] {
		w.mu.Unlock()
		return nil, &api.PreconditionError{Msg: fmt.Sprintf("a %s preview is already in flight", kind)}
	}
	w.inflight[kind] = true
	delete(w.pending, kind)
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.inflight, kind)
		w.mu.Unlock()
	}()

	payload := draft.payload(w.clientOrderID())

	result, err := w.client.PreviewOrder(ctx, accountIDKey, payload)
	if err != nil {
		return nil, err
	}

	pp := &PendingPreview{
		Kind:         kind,
		AccountIDKey: accountIDKey,
		Payload:      payload,
		PreviewID:    result.PreviewID,
		Estimate:     result.Estimate,
		IssuedAt:     w.now(),
	}

	w.mu.Lock()
	if w.lastID[kind] == result.PreviewID {
		log.WithFields(log.Fields{"kind": kind, "previewId": result.PreviewID}).
			Warn("broker re-issued an identical preview id")
	}
	w.lastID[kind] = result.PreviewID
	w.pending[kind] = pp
	w.mu.Unlock()

	snapshot := *pp
	return &snapshot, nil
}

// Place submits the pending preview of the given kind. The stored payload
// is transmitted exactly as previewed with the preview id merged in. The
// PendingPreview is consumed whether the place call succeeds or fails; a
// failed place requires a fresh preview. A stale token re-sent is more
// dangerous than the cost of previewing again.
func (w *Workflow) Place(ctx context.Context, kind OrderKind) (*api.Order, error) {
	w.mu.Lock()
	pp, ok := w.pending[kind]
	if !ok {
		w.mu.Unlock()
		return nil, &api.PreconditionError{Msg: "preview required before place"}
	}
	delete(w.pending, kind)
	w.mu.Unlock()

	order, err := w.client.PlaceOrder(ctx, pp.AccountIDKey, pp.Payload, pp.PreviewID)
	if err != nil {
		return nil, fmt.Errorf("place failed, preview discarded: %w", err)
	}

	return order, nil
}

// PreviewAndPlace runs Preview then Place with no pause. A preview failure
// stops the composition before any place call; a place failure leaves no
// PendingPreview, consistent with Place.
func (w *Workflow) PreviewAndPlace(ctx context.Context, draft Draft) (*api.Order, error) {
	if _, err := w.Preview(ctx, draft); err != nil {
		return nil, err
	}
	return w.Place(ctx, draft.Kind())
}

// Discard drops the pending preview of the given kind, if any.
func (w *Workflow) Discard(kind OrderKind) {
	w.mu.Lock()
	delete(w.pending, kind)
	w.mu.Unlock()
}

// Pending returns a snapshot of the live preview of the given kind.
func (w *Workflow) Pending(kind OrderKind) (*PendingPreview, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	pp, ok := w.pending[kind]
	if !ok {
		return nil, false
	}
	snapshot := *pp
	return &snapshot, true
}
