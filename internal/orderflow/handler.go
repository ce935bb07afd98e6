package orderflow

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/orderflow/pkg/enums/bucket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	service *Service
	logger  apt.Logger
	config  *apt.Config
	tlm     *telemetry.HTTP
}

func NewHandler(service *Service, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		service: service,
		logger:  logger,
		config:  config,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/board", h.Board)
		r.Get("/{id}", h.GetOrder)
		r.Delete("/{id}", h.ArchiveOrder)
		r.Post("/{id}/events", h.ApplyEvent)
		for _, kind := range AllEventKinds {
			r.Patch("/{id}/"+kind.Slug(), h.applyKind(kind))
		}
	})
}

// OrderView is an order plus the actions it accepts now.
type OrderView struct {
	Order
	Bucket          string      `json:"bucket"`
	AvailableEvents []EventKind `json:"available_events"`
}

func newOrderView(o Order) OrderView {
	available := AvailableEvents(o)
	if available == nil {
		available = []EventKind{}
	}
	return OrderView{
		Order:           o,
		Bucket:          o.State.Bucket().Code(),
		AvailableEvents: available,
	}
}

type createOrderRequest struct {
	Channel string   `json:"channel"`
	Items   []string `json:"items"`
}

type eventRequest struct {
	Kind string `json:"kind"`
	Note string `json:"note"`
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()
	log := h.log(r)

	var req createOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.service.Create(r.Context(), req.Channel, req.Items)
	if err != nil {
		if errors.Is(err, ErrInvalidOrder) {
			apt.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Errorf("cannot create order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create order")
		return
	}

	log.Info("order created", "order_id", order.ID.String(), "channel", order.Channel)
	apt.Respond(w, http.StatusCreated, newOrderView(order), nil)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	filter := ListFilter{}

	if name := r.URL.Query().Get("bucket"); name != "" {
		b := bucket.ByName(name)
		if b == nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid bucket")
			return
		}
		filter.Bucket = b
	}

	sortOrder, err := ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid sort")
		return
	}
	filter.Sort = sortOrder

	orders := h.service.List(filter)
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o))
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"orders": views,
		"count":  len(views),
	}, nil)
}

// Board returns every live order grouped by bucket.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Board")
	defer finish()

	sortOrder, err := ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid sort")
		return
	}

	groups := Group(h.service.List(ListFilter{Sort: sortOrder}))
	apt.Respond(w, http.StatusOK, groups, nil)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	order, err := h.service.Get(id)
	if err != nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	apt.Respond(w, http.StatusOK, newOrderView(order), nil)
}

func (h *Handler) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ApplyEvent")
	defer finish()

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if !h.decode(w, r, &req) {
		return
	}

	kind, err := ParseEventKind(req.Kind)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.apply(w, r, id, Event{Kind: kind, Note: req.Note})
}

func (h *Handler) applyKind(kind EventKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w, r, finish := h.tlm.Start(w, r, "Handler."+kind.String())
		defer finish()

		id, ok := h.parseID(w, r)
		if !ok {
			return
		}

		var req eventRequest
		if !h.decode(w, r, &req) {
			return
		}

		h.apply(w, r, id, Event{Kind: kind, Note: req.Note})
	}
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, id OrderID, evt Event) {
	log := h.log(r)

	order, err := h.service.Apply(r.Context(), id, evt)
	if err != nil {
		var rejected *RejectedError
		switch {
		case errors.Is(err, ErrOrderNotFound):
			apt.RespondError(w, http.StatusNotFound, "Order not found")
		case errors.As(err, &rejected):
			log.Debug("transition rejected", "order_id", id.String(), "event", evt.Kind.String(), "state", rejected.State.String())
			apt.RespondError(w, http.StatusConflict, rejected.Error())
		case errors.Is(err, ErrUnknownEvent):
			apt.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Errorf("cannot apply %s to order %s: %v", evt.Kind, id, err)
			apt.RespondError(w, http.StatusInternalServerError, "Could not update order")
		}
		return
	}

	apt.Respond(w, http.StatusOK, newOrderView(order), nil)
}

func (h *Handler) ArchiveOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ArchiveOrder")
	defer finish()
	log := h.log(r)

	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	order, err := h.service.Archive(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			apt.RespondError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, ErrNotFinalized):
			apt.RespondError(w, http.StatusConflict, "Only finalized orders can be archived")
		default:
			log.Errorf("cannot archive order %s: %v", id, err)
			apt.RespondError(w, http.StatusInternalServerError, "Could not archive order")
		}
		return
	}

	log.Info("order archived", "order_id", order.ID.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (OrderID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return uuid.Nil, false
	}
	return id, true
}

// decode reads an optional JSON body into dst. An empty body leaves dst as is.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apt.RespondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return false
	}

	if len(body) == 0 {
		return true
	}

	if err := json.Unmarshal(body, dst); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	return true
}
