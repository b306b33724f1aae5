package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"hft-ui-go/internal/dashboard"
	"hft-ui-go/internal/database"
	"hft-ui-go/internal/display"
	"hft-ui-go/internal/hftapi"
	"hft-ui-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

//go:embed web/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsPongWait   = wsPingPeriod * 2
)

// APIHandler holds dependencies for the dashboard endpoints.
type APIHandler struct {
	log      *zap.Logger
	store    *dashboard.Store
	syncer   *dashboard.Syncer
	journal  *database.Journal
	loc      *time.Location
	started  time.Time
	upgrader websocket.Upgrader
}

// NewAPIHandler creates a new APIHandler. Views are rendered in loc.
func NewAPIHandler(log *zap.Logger, store *dashboard.Store, syncer *dashboard.Syncer, journal *database.Journal, loc *time.Location) *APIHandler {
	return &APIHandler{
		log:     log.Named("api"),
		store:   store,
		syncer:  syncer,
		journal: journal,
		loc:     loc,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.IndexHandler)
	r.Get("/health", h.HealthHandler)
	r.Get("/ws", h.WebsocketHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.StatusHandler)
		r.Get("/view", h.ViewHandler)
		r.Post("/select", h.SelectHandler)
		r.Post("/tab", h.TabHandler)
		r.Post("/accounts/reload", h.ReloadAccountsHandler)
		r.Post("/orders", h.PlaceOrderHandler)
		r.Delete("/orders/{client_id}", h.CancelOrderHandler)
		r.Get("/actions", h.ActionsHandler)
		r.Get("/actions/stats", h.ActionStatsHandler)
	})
}

func (h *APIHandler) view() display.View {
	return display.BuildView(h.store.Snapshot(), h.loc)
}

// IndexHandler renders the dashboard page with the current view.
func (h *APIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, h.view()); err != nil {
		h.log.Error("Failed to render index", zap.Error(err))
	}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Uptime          string            `json:"uptime"`
	SelectedAccount string            `json:"selected_account"`
	Tab             string            `json:"tab"`
	Version         uint64            `json:"version"`
	RefreshedAt     string            `json:"refreshed_at"`
	Errors          map[string]string `json:"errors"`
}

// StatusHandler reports what the sync loop is doing.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	v := h.view()
	writeJSON(w, http.StatusOK, StatusResponse{
		Uptime:          time.Since(h.started).Round(time.Second).String(),
		SelectedAccount: v.SelectedAccount,
		Tab:             v.Tab,
		Version:         v.Version,
		RefreshedAt:     v.RefreshedAt,
		Errors:          v.Errors,
	})
}

func (h *APIHandler) ViewHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.view())
}

// SelectHandler switches the selected account.
func (h *APIHandler) SelectHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccountID string `json:"account_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.syncer.SelectAccount(body.AccountID); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

// TabHandler switches the active tab.
func (h *APIHandler) TabHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tab string `json:"tab"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.syncer.SetTab(dashboard.Tab(body.Tab)); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

func (h *APIHandler) ReloadAccountsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.syncer.ReloadAccounts(r.Context()); err != nil {
		h.log.Warn("Failed to reload accounts", zap.Error(err))
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

// PlaceOrderHandler submits the order form for the selected account.
func (h *APIHandler) PlaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	var form dashboard.OrderForm
	if !decodeBody(w, r, &form) {
		return
	}
	if err := h.syncer.PlaceOrder(r.Context(), form); err != nil {
		writeError(w, actionStatus(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.view())
}

// CancelOrderHandler cancels an order that is currently listed.
func (h *APIHandler) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "client_id")
	order, ok := findOrder(h.store.Snapshot().Orders, clientID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("order not listed: "+clientID))
		return
	}
	if err := h.syncer.CancelOrder(r.Context(), order); err != nil {
		writeError(w, actionStatus(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.view())
}

func findOrder(orders []models.Order, clientID string) (models.Order, bool) {
	for _, o := range orders {
		if o.ClientID.String() == clientID {
			return o, true
		}
	}
	return models.Order{}, false
}

func actionStatus(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrNoAccount), errors.Is(err, dashboard.ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, hftapi.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ActionsHandler returns the journal, most recent first.
func (h *APIHandler) ActionsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = n
	}
	actions, err := h.journal.Recent(r.Context(), r.URL.Query().Get("account_id"), limit)
	if err != nil {
		h.log.Error("Failed to get order actions from database", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

// ActionStatsHandler calculates and returns journal statistics.
func (h *APIHandler) ActionStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.journal.Stats(r.Context(), time.Now())
	if err != nil {
		h.log.Error("Failed to calculate statistics", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// WebsocketHandler pushes the view on connect and after every store change.
func (h *APIHandler) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	changes, unsubscribe := h.store.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.readPump(conn, cancel)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	if err := h.push(conn); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			if err := h.push(conn); err != nil {
				h.log.Debug("Websocket closed", zap.Error(err))
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *APIHandler) push(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(h.view())
}

// readPump drains client frames so pongs and close frames are processed.
func (h *APIHandler) readPump(conn *websocket.Conn, done func()) {
	defer done()
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
