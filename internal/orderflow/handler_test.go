package orderflow

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(svc, apt.NewConfig(), apt.NewNoopLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v: %s", err, w.Body.String())
	}
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response does not contain data object: %s", w.Body.String())
	}
	return data
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name   string
		config *apt.Config
		logger apt.Logger
	}{
		{name: "withAllDependencies", config: apt.NewConfig(), logger: apt.NewNoopLogger()},
		{name: "withNilLogger", config: apt.NewConfig(), logger: nil},
		{name: "withNilConfig", config: nil, logger: apt.NewNoopLogger()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			if h := NewHandler(svc, tt.config, tt.logger); h == nil {
				t.Error("NewHandler() returned nil")
			}
		})
	}
}

func TestHandlerCreateOrder(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{name: "success", body: `{"channel":"counter","items":["roast chicken"]}`, expectedStatus: http.StatusCreated},
		{name: "unknownChannel", body: `{"channel":"fax","items":["fries"]}`, expectedStatus: http.StatusBadRequest},
		{name: "noItems", body: `{"channel":"counter","items":[]}`, expectedStatus: http.StatusBadRequest},
		{name: "emptyBody", body: "", expectedStatus: http.StatusBadRequest},
		{name: "invalidJSON", body: `{"channel":`, expectedStatus: http.StatusBadRequest},
		{
			name:           "bodyTooLarge",
			body:           `{"channel":"counter","items":["` + strings.Repeat("a", MaxBodyBytes) + `"]}`,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, pub := newTestService()
			w := doRequest(newTestRouter(svc), http.MethodPost, "/orders", tt.body)

			if w.Code != tt.expectedStatus {
				t.Fatalf("CreateOrder() status = %d, want %d: %s", w.Code, tt.expectedStatus, w.Body.String())
			}

			if tt.expectedStatus != http.StatusCreated {
				if svc.Registry().Count() != 0 {
					t.Errorf("registry count = %d, want 0", svc.Registry().Count())
				}
				return
			}

			data := decodeData(t, w)
			if data["state"] != "NEW" {
				t.Errorf("state = %v, want NEW", data["state"])
			}
			if data["bucket"] != "pending" {
				t.Errorf("bucket = %v, want pending", data["bucket"])
			}
			logs, _ := data["log"].([]interface{})
			if len(logs) != 1 {
				t.Errorf("log length = %d, want 1", len(logs))
			}
			available, _ := data["available_events"].([]interface{})
			if len(available) != 1 || available[0] != "START_KITCHEN" {
				t.Errorf("available_events = %v, want [START_KITCHEN]", available)
			}
			if len(pub.PublishedEvents) != 1 {
				t.Errorf("published %d events, want 1", len(pub.PublishedEvents))
			}
		})
	}
}

func TestHandlerListOrders(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  int
	}{
		{name: "all", query: "", expectedStatus: http.StatusOK, expectedCount: 3},
		{name: "pending", query: "?bucket=pending", expectedStatus: http.StatusOK, expectedCount: 2},
		{name: "inProcess", query: "?bucket=in_process&sort=oldest", expectedStatus: http.StatusOK, expectedCount: 1},
		{name: "completed", query: "?bucket=completed", expectedStatus: http.StatusOK, expectedCount: 0},
		{name: "invalidBucket", query: "?bucket=archived", expectedStatus: http.StatusBadRequest},
		{name: "invalidSort", query: "?sort=sideways", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			ctx := context.Background()
			svc.Create(ctx, "counter", []string{"a"})
			svc.Create(ctx, "phone", []string{"b"})
			verified, _ := svc.Create(ctx, "app", []string{"c"})
			for _, k := range toVerified {
				if _, err := svc.Apply(ctx, verified.ID, Event{Kind: k}); err != nil {
					t.Fatalf("Apply(%s) error = %v", k, err)
				}
			}

			w := doRequest(newTestRouter(svc), http.MethodGet, "/orders"+tt.query, "")

			if w.Code != tt.expectedStatus {
				t.Fatalf("ListOrders() status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			data := decodeData(t, w)
			orders, ok := data["orders"].([]interface{})
			if !ok {
				t.Fatalf("Response does not contain orders array: %s", w.Body.String())
			}
			if len(orders) != tt.expectedCount {
				t.Errorf("orders count = %d, want %d", len(orders), tt.expectedCount)
			}
			if count, _ := data["count"].(float64); int(count) != tt.expectedCount {
				t.Errorf("count = %v, want %d", data["count"], tt.expectedCount)
			}
		})
	}
}

func TestHandlerListOrdersNewestFirst(t *testing.T) {
	svc, _, _ := newTestService()
	first, _ := svc.Create(context.Background(), "counter", []string{"a"})
	second, _ := svc.Create(context.Background(), "phone", []string{"b"})

	w := doRequest(newTestRouter(svc), http.MethodGet, "/orders", "")

	data := decodeData(t, w)
	orders, _ := data["orders"].([]interface{})
	if len(orders) != 2 {
		t.Fatalf("orders count = %d, want 2", len(orders))
	}
	got := []interface{}{
		orders[0].(map[string]interface{})["id"],
		orders[1].(map[string]interface{})["id"],
	}
	if got[0] != second.ID.String() || got[1] != first.ID.String() {
		t.Errorf("order ids = %v, want [%s %s]", got, second.ID, first.ID)
	}
}

func TestHandlerBoard(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.Create(ctx, "counter", []string{"a"})
	cooking, _ := svc.Create(ctx, "phone", []string{"b"})
	if _, err := svc.Apply(ctx, cooking.ID, Event{Kind: EventStartKitchen}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/orders/board", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Board() status = %d, want %d", w.Code, http.StatusOK)
	}

	data := decodeData(t, w)
	want := map[string]int{"pending": 2, "in_process": 0, "completed": 0}
	for name, count := range want {
		group, ok := data[name].([]interface{})
		if !ok {
			t.Fatalf("Response does not contain %s array: %s", name, w.Body.String())
		}
		if len(group) != count {
			t.Errorf("%s count = %d, want %d", name, len(group), count)
		}
	}

	w = doRequest(router, http.MethodGet, "/orders/board?sort=sideways", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Board() invalid sort status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandlerGetOrder(t *testing.T) {
	svc, _, _ := newTestService()
	o, _ := svc.Create(context.Background(), "counter", []string{"fries"})
	router := newTestRouter(svc)

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{name: "success", id: o.ID.String(), expectedStatus: http.StatusOK},
		{name: "invalidID", id: "invalid-uuid", expectedStatus: http.StatusBadRequest},
		{name: "notFound", id: uuid.New().String(), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/orders/"+tt.id, "")
			if w.Code != tt.expectedStatus {
				t.Errorf("GetOrder() status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandlerApplyEvent(t *testing.T) {
	tests := []struct {
		name           string
		id             func(o Order) string
		body           string
		expectedStatus int
		expectedState  State
	}{
		{
			name:           "success",
			body:           `{"kind":"START_KITCHEN","note":"grill 1"}`,
			expectedStatus: http.StatusOK,
			expectedState:  StateInKitchen,
		},
		{
			name:           "slugKind",
			body:           `{"kind":"start-kitchen"}`,
			expectedStatus: http.StatusOK,
			expectedState:  StateInKitchen,
		},
		{
			name:           "rejected",
			body:           `{"kind":"VERIFY_ORDER"}`,
			expectedStatus: http.StatusConflict,
			expectedState:  StateNew,
		},
		{
			name:           "unknownKind",
			body:           `{"kind":"REFUND"}`,
			expectedStatus: http.StatusBadRequest,
			expectedState:  StateNew,
		},
		{
			name:           "missingKind",
			body:           "",
			expectedStatus: http.StatusBadRequest,
			expectedState:  StateNew,
		},
		{
			name:           "notFound",
			id:             func(Order) string { return uuid.New().String() },
			body:           `{"kind":"START_KITCHEN"}`,
			expectedStatus: http.StatusNotFound,
			expectedState:  StateNew,
		},
		{
			name:           "invalidID",
			id:             func(Order) string { return "invalid-uuid" },
			body:           `{"kind":"START_KITCHEN"}`,
			expectedStatus: http.StatusBadRequest,
			expectedState:  StateNew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			o, _ := svc.Create(context.Background(), "counter", []string{"roast chicken"})

			id := o.ID.String()
			if tt.id != nil {
				id = tt.id(o)
			}

			w := doRequest(newTestRouter(svc), http.MethodPost, "/orders/"+id+"/events", tt.body)

			if w.Code != tt.expectedStatus {
				t.Fatalf("ApplyEvent() status = %d, want %d: %s", w.Code, tt.expectedStatus, w.Body.String())
			}

			stored, _ := svc.Get(o.ID)
			if stored.State != tt.expectedState {
				t.Errorf("stored state = %s, want %s", stored.State, tt.expectedState)
			}
		})
	}
}

func TestHandlerActionRoutes(t *testing.T) {
	svc, _, _ := newTestService()
	o, _ := svc.Create(context.Background(), "phone", []string{"whole chicken"})
	router := newTestRouter(svc)

	steps := []struct {
		slug  string
		state State
	}{
		{"start-kitchen", StateInKitchen},
		{"complete-prep", StateInKitchen},
		{"complete-bake", StateInKitchen},
		{"mark-ready-assemble", StateReadyToAssemble},
		{"verify-order", StateVerified},
		{"route-delivery", StateReadyDelivery},
		{"mark-en-route", StateEnRoute},
		{"delivered-delivery", StateDeliveredViaDelivery},
		{"finalize", StateFinalized},
	}

	for _, step := range steps {
		w := doRequest(router, http.MethodPatch, "/orders/"+o.ID.String()+"/"+step.slug, "")
		if w.Code != http.StatusOK {
			t.Fatalf("PATCH %s status = %d, want %d: %s", step.slug, w.Code, http.StatusOK, w.Body.String())
		}
		data := decodeData(t, w)
		if data["state"] != step.state.String() {
			t.Fatalf("PATCH %s state = %v, want %s", step.slug, data["state"], step.state)
		}
	}

	stored, _ := svc.Get(o.ID)
	if stored.FulfillmentMode != FulfillmentDelivery {
		t.Errorf("fulfillment mode = %q, want %q", stored.FulfillmentMode, FulfillmentDelivery)
	}
	if len(stored.Log) != len(steps)+1 {
		t.Errorf("log length = %d, want %d", len(stored.Log), len(steps)+1)
	}

	w := doRequest(router, http.MethodPatch, "/orders/"+o.ID.String()+"/route-pickup", "")
	if w.Code != http.StatusConflict {
		t.Errorf("PATCH route-pickup on finalized status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestHandlerArchiveOrder(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	open, _ := svc.Create(ctx, "counter", []string{"fries"})
	done, _ := svc.Create(ctx, "app", []string{"family combo"})
	for _, k := range append(append([]EventKind{}, toPickedUp...), EventFinalize) {
		if _, err := svc.Apply(ctx, done.ID, Event{Kind: k}); err != nil {
			t.Fatalf("Apply(%s) error = %v", k, err)
		}
	}
	router := newTestRouter(svc)

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{name: "notFinalized", id: open.ID.String(), expectedStatus: http.StatusConflict},
		{name: "finalized", id: done.ID.String(), expectedStatus: http.StatusNoContent},
		{name: "alreadyArchived", id: done.ID.String(), expectedStatus: http.StatusNotFound},
		{name: "invalidID", id: "invalid-uuid", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodDelete, "/orders/"+tt.id, "")
			if w.Code != tt.expectedStatus {
				t.Errorf("ArchiveOrder() status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}

	if svc.Registry().Count() != 1 {
		t.Errorf("registry count = %d, want 1", svc.Registry().Count())
	}
}
