package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/dvcrn/eventpix-client/internal/api"
)

// checkoutURL is where the payment provider would take over.
const checkoutURL = "https://checkout.example.com/pay/"

func (s *Server) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req api.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"items": {"This list may not be empty."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for i, item := range req.Items {
		if item.Quantity < 1 {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"items": {fmt.Sprintf("item %d: quantity must be at least 1", i)},
			})
			return
		}
		switch item.Kind {
		case api.KindTicket:
			t := s.db.ticket(item.ID)
			if t == nil {
				writeJSON(w, http.StatusBadRequest, map[string][]string{"items": {fmt.Sprintf("item %d: unknown ticket %d", i, item.ID)}})
				return
			}
			if t.Available < item.Quantity {
				writeJSON(w, http.StatusBadRequest, map[string][]string{"items": {fmt.Sprintf("item %d: only %d left", i, t.Available)}})
				return
			}
			total += parseCents(t.Price) * item.Quantity
		case api.KindPhoto:
			p := s.db.photo(item.ID)
			if p == nil {
				writeJSON(w, http.StatusBadRequest, map[string][]string{"items": {fmt.Sprintf("item %d: unknown photo %d", i, item.ID)}})
				return
			}
			total += parseCents(p.Price) * item.Quantity
		default:
			writeJSON(w, http.StatusBadRequest, map[string][]string{"items": {fmt.Sprintf("item %d: unknown kind %q", i, item.Kind)}})
			return
		}
	}

	// reserve only once every item validated
	for _, item := range req.Items {
		if item.Kind == api.KindTicket {
			s.db.ticket(item.ID).Available -= item.Quantity
		}
	}

	id := uuid.NewString()
	s.db.orders[id] = req
	writeJSON(w, http.StatusCreated, api.Order{
		OrderID:     id,
		CheckoutURL: checkoutURL + id,
		Total:       formatCents(total),
	})
}
