package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"parkspace/internal/lot"
	"parkspace/pkg/domain"
	"parkspace/pkg/domerrors"
	"parkspace/pkg/platform/httputil"
	"parkspace/pkg/requestcontext"
)

// Service defines the lot operations the HTTP surface exposes.
type Service interface {
	CreateLot(ctx context.Context, owner domain.Address, metadataURI string, payment uint64) (lot.Lot, error)
	SetListing(ctx context.Context, id domain.LotID, target lot.Status, caller domain.Address) (lot.Status, error)
	SetSalePrice(ctx context.Context, id domain.LotID, price uint64, caller domain.Address) error
	Buy(ctx context.Context, id domain.LotID, caller domain.Address, payment uint64) (lot.Lot, error)
	SetRentTerms(ctx context.Context, id domain.LotID, pricePerDay, depositPct uint64, caller domain.Address) error
	QuoteRent(ctx context.Context, id domain.LotID, durationSeconds int64) (uint64, error)
	Rent(ctx context.Context, id domain.LotID, caller domain.Address, durationSeconds int64, payment uint64) (lot.Lot, error)
	SettleByRenter(ctx context.Context, id domain.LotID, caller domain.Address, payment uint64) (lot.Lot, error)
	ReclaimByLender(ctx context.Context, id domain.LotID, caller domain.Address) (lot.Lot, error)

	GetLot(ctx context.Context, id domain.LotID) (lot.Lot, error)
	SalePrice(ctx context.Context, id domain.LotID) (uint64, error)
	LotCount(ctx context.Context) (uint64, error)
	BlacklistCount(ctx context.Context) (uint64, error)
	IsBlacklisted(ctx context.Context, addr domain.Address) (bool, error)
	MaxLotsPerWallet() int
	MintFee() uint64
}

// Handler wires lot endpoints to the lot service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a lot handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts lot endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/lots", h.HandleCreateLot)
	r.Get("/lots/count", h.HandleLotCount)
	r.Get("/lots/{lotID}", h.HandleGetLot)
	r.Get("/lots/{lotID}/quote", h.HandleQuoteRent)
	r.Post("/lots/{lotID}/listing", h.HandleSetListing)
	r.Post("/lots/{lotID}/sale-price", h.HandleSetSalePrice)
	r.Post("/lots/{lotID}/buy", h.HandleBuy)
	r.Post("/lots/{lotID}/rent-terms", h.HandleSetRentTerms)
	r.Post("/lots/{lotID}/rent", h.HandleRent)
	r.Post("/lots/{lotID}/settle", h.HandleSettle)
	r.Post("/lots/{lotID}/reclaim", h.HandleReclaim)
	r.Get("/blacklist/count", h.HandleBlacklistCount)
	r.Get("/blacklist/{address}", h.HandleIsBlacklisted)
	r.Get("/limits", h.HandleLimits)
}

// caller extracts the authenticated caller address, failing the request
// when the identity header is missing.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	addr := requestcontext.Caller(r.Context())
	if addr.IsZero() {
		httputil.WriteError(w, domerrors.New(domerrors.CodeUnauthorized, "caller identity required"))
		return "", false
	}
	return addr, true
}

// lotID parses the {lotID} route parameter.
func (h *Handler) lotID(w http.ResponseWriter, r *http.Request) (domain.LotID, bool) {
	id, err := domain.ParseLotID(chi.URLParam(r, "lotID"))
	if err != nil {
		httputil.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "invalid lot id"))
		return 0, false
	}
	return id, true
}

func decode[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request, dst T) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		httputil.WriteError(w, err)
		return false
	}
	if err := dst.Validate(); err != nil {
		httputil.WriteError(w, err)
		return false
	}
	return true
}

// HandleCreateLot handles POST /lots requests.
func (h *Handler) HandleCreateLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req CreateLotRequest
	if !decode(w, r, &req) {
		return
	}

	rec, err := h.service.CreateLot(ctx, owner, req.MetadataURI, req.Payment)
	if err != nil {
		h.logger.ErrorContext(ctx, "create lot failed",
			"request_id", requestcontext.RequestID(ctx),
			"owner", owner,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "lot created",
		"request_id", requestcontext.RequestID(ctx),
		"lot_id", rec.ID,
		"owner", owner,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromLot(rec))
}

// HandleGetLot handles GET /lots/{lotID} requests.
func (h *Handler) HandleGetLot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetLot(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := FromLot(rec)
	if price, err := h.service.SalePrice(r.Context(), id); err == nil && price > 0 {
		resp.SalePrice = &price
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleSetListing handles POST /lots/{lotID}/listing requests.
func (h *Handler) HandleSetListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	var req ListingRequest
	if !decode(w, r, &req) {
		return
	}

	status, err := h.service.SetListing(ctx, id, req.ParsedTarget(), caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing change failed",
			"request_id", requestcontext.RequestID(ctx),
			"lot_id", id,
			"target", req.Target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: string(status)})
}

// HandleSetSalePrice handles POST /lots/{lotID}/sale-price requests.
func (h *Handler) HandleSetSalePrice(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	var req SalePriceRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.service.SetSalePrice(r.Context(), id, req.Price, caller); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBuy handles POST /lots/{lotID}/buy requests.
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	var req BuyRequest
	if !decode(w, r, &req) {
		return
	}

	rec, err := h.service.Buy(ctx, id, caller, req.Payment)
	if err != nil {
		h.logger.ErrorContext(ctx, "buy failed",
			"request_id", requestcontext.RequestID(ctx),
			"lot_id", id,
			"buyer", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "lot sold",
		"request_id", requestcontext.RequestID(ctx),
		"lot_id", id,
		"buyer", caller,
	)
	httputil.WriteJSON(w, http.StatusOK, FromLot(rec))
}

// HandleSetRentTerms handles POST /lots/{lotID}/rent-terms requests.
func (h *Handler) HandleSetRentTerms(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	var req RentTermsRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.service.SetRentTerms(r.Context(), id, req.Price, req.Deposit, caller); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleQuoteRent handles GET /lots/{lotID}/quote?duration=SECONDS requests.
func (h *Handler) HandleQuoteRent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	duration, err := strconv.ParseInt(r.URL.Query().Get("duration"), 10, 64)
	if err != nil || duration <= 0 {
		httputil.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "duration must be a positive number of seconds"))
		return
	}

	quote, err := h.service.QuoteRent(r.Context(), id, duration)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, QuoteResponse{Quote: quote, DurationSeconds: duration})
}

// HandleRent handles POST /lots/{lotID}/rent requests.
func (h *Handler) HandleRent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	var req RentRequest
	if !decode(w, r, &req) {
		return
	}

	rec, err := h.service.Rent(ctx, id, caller, req.DurationSeconds, req.Payment)
	if err != nil {
		h.logger.ErrorContext(ctx, "rent failed",
			"request_id", requestcontext.RequestID(ctx),
			"lot_id", id,
			"renter", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "rental started",
		"request_id", requestcontext.RequestID(ctx),
		"lot_id", id,
		"renter", caller,
		"return_day", rec.ReturnDay,
	)
	httputil.WriteJSON(w, http.StatusOK, FromLot(rec))
}

// HandleSettle handles POST /lots/{lotID}/settle requests.
func (h *Handler) HandleSettle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	var req SettleRequest
	if !decode(w, r, &req) {
		return
	}

	rec, err := h.service.SettleByRenter(ctx, id, caller, req.Payment)
	if err != nil {
		h.logger.ErrorContext(ctx, "settle failed",
			"request_id", requestcontext.RequestID(ctx),
			"lot_id", id,
			"renter", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromLot(rec))
}

// HandleReclaim handles POST /lots/{lotID}/reclaim requests.
func (h *Handler) HandleReclaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.ReclaimByLender(ctx, id, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "reclaim failed",
			"request_id", requestcontext.RequestID(ctx),
			"lot_id", id,
			"lender", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "lot reclaimed",
		"request_id", requestcontext.RequestID(ctx),
		"lot_id", id,
		"lender", caller,
	)
	httputil.WriteJSON(w, http.StatusOK, FromLot(rec))
}

// HandleLotCount handles GET /lots/count requests.
func (h *Handler) HandleLotCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.LotCount(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Count: count})
}

// HandleBlacklistCount handles GET /blacklist/count requests.
func (h *Handler) HandleBlacklistCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.BlacklistCount(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Count: count})
}

// HandleIsBlacklisted handles GET /blacklist/{address} requests.
func (h *Handler) HandleIsBlacklisted(w http.ResponseWriter, r *http.Request) {
	addr := domain.Address(chi.URLParam(r, "address"))
	if addr.IsZero() {
		httputil.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "address is required"))
		return
	}

	barred, err := h.service.IsBlacklisted(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BlacklistedResponse{Address: string(addr), Blacklisted: barred})
}

// HandleLimits handles GET /limits requests.
func (h *Handler) HandleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LimitsResponse{
		MaxLotsPerWallet: h.service.MaxLotsPerWallet(),
		MintFee:          h.service.MintFee(),
	})
}
