// Package apitest runs an in-process stand-in for the storefront backend so
// client and store tests can exercise real HTTP round trips.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pcforge/storefront/internal/domain"
)

type CartLine struct {
	ProductID int64
	Quantity  int
}

// Server holds mutable backend state. Fields are guarded by mu; tests may
// inspect them directly after taking Lock, or use the accessor helpers.
type Server struct {
	mu sync.Mutex

	Categories []domain.Category
	Products   []domain.Product
	Brands     map[int64]string            // product id -> brand
	Specs      map[int64]map[string]string // product id -> spec key/value
	Facets     map[int64][]domain.Facet    // category id -> facets

	Users    map[string]string // username -> password
	Tokens   map[string]string // token -> username
	Carts    map[string][]CartLine
	Profiles map[string]domain.Profile
	Cards    map[string][]domain.SavedCard
	Orders   []domain.OrderSubmission

	// Failure switches for error-path tests.
	FailCart   bool
	FailOrders bool

	httpServer *httptest.Server
}

func NewServer() *Server {
	s := &Server{
		Brands:   make(map[int64]string),
		Specs:    make(map[int64]map[string]string),
		Facets:   make(map[int64][]domain.Facet),
		Users:    make(map[string]string),
		Tokens:   make(map[string]string),
		Carts:    make(map[string][]CartLine),
		Profiles: make(map[string]domain.Profile),
		Cards:    make(map[string][]domain.SavedCard),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/token/", s.handleToken)
		r.Post("/register/", s.handleRegister)
		r.Get("/categories/", s.handleCategories)
		r.Get("/products/", s.handleProducts)
		r.Get("/products/{slug}/", s.handleProduct)
		r.Get("/filters/", s.handleFilters)
		r.Get("/cart/", s.handleCartGet)
		r.Post("/cart/", s.handleCartAdd)
		r.Delete("/cart/", s.handleCartRemove)
		r.Get("/profile/", s.handleProfileGet)
		r.Patch("/profile/", s.handleProfilePatch)
		r.Get("/saved-cards/", s.handleSavedCards)
		r.Post("/save-card/", s.handleSaveCard)
		r.Post("/orders/", s.handleOrders)
		r.Get("/my-orders/", s.handleMyOrders)
	})

	s.httpServer = httptest.NewServer(r)
	return s
}

func (s *Server) URL() string { return s.httpServer.URL }
func (s *Server) Close()      { s.httpServer.Close() }

// Authorize registers a session token for username and returns it.
func (s *Server) Authorize(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "tok-" + username
	s.Tokens[token] = username
	return token
}

// ServerCart returns a copy of the cart lines held for token.
func (s *Server) ServerCart(token string) []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CartLine(nil), s.Carts[token]...)
}

func (s *Server) SubmittedOrders() []domain.OrderSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OrderSubmission(nil), s.Orders...)
}

func (s *Server) bearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	_, known := s.Tokens[token]
	return token, known
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.Users[req.Username]; !ok || pw != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token := "tok-" + req.Username
	s.Tokens[token] = req.Username
	writeJSON(w, http.StatusOK, map[string]string{"access": token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.Users[req.Username]; exists {
		writeError(w, http.StatusBadRequest, "username already taken")
		return
	}
	s.Users[req.Username] = req.Password
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats := s.Categories
	if cats == nil {
		cats = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// categoryMatches reports whether the product's category is catID or a direct
// child of catID.
func (s *Server) categoryMatches(p domain.Product, catID int64) bool {
	if p.CategoryID == catID {
		return true
	}
	for _, c := range s.Categories {
		if c.ID == p.CategoryID && c.ParentID != nil && *c.ParentID == catID {
			return true
		}
	}
	return false
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	out := []domain.Product{}

	for _, p := range s.Products {
		if !p.Available {
			continue
		}
		if catParam := q.Get("category"); catParam != "" {
			catID, _ := strconv.ParseInt(catParam, 10, 64)
			if !s.categoryMatches(p, catID) {
				continue
			}
		}
		if search := q.Get("search"); search != "" {
			if !strings.Contains(strings.ToLower(p.Name+" "+p.Description), strings.ToLower(search)) {
				continue
			}
		}
		if brand := q.Get("brand"); brand != "" {
			if !strings.EqualFold(s.Brands[p.ID], brand) {
				continue
			}
		}
		if minP := q.Get("min_price"); minP != "" {
			if v, err := strconv.ParseFloat(minP, 64); err == nil && p.Price < v {
				continue
			}
		}
		if maxP := q.Get("max_price"); maxP != "" {
			if v, err := strconv.ParseFloat(maxP, 64); err == nil && p.Price > v {
				continue
			}
		}
		if specs := q.Get("specs"); specs != "" && !s.specsMatch(p.ID, specs) {
			continue
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) specsMatch(productID int64, specs string) bool {
	have := s.Specs[productID]
	for _, pair := range strings.Split(specs, ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		if !strings.EqualFold(have[key], value) {
			return false
		}
	}
	return true
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Products {
		if p.Slug == slug {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, "product not found")
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	catParam := r.URL.Query().Get("category")
	if catParam == "" {
		writeError(w, http.StatusBadRequest, "Category ID required")
		return
	}
	catID, _ := strconv.ParseInt(catParam, 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	facets := s.Facets[catID]
	if facets == nil {
		facets = []domain.Facet{}
	}
	writeJSON(w, http.StatusOK, facets)
}

type cartItemPayload struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
	Slug      string  `json:"slug"`
	Stock     int     `json:"stock"`
}

func (s *Server) handleCartGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCart {
		writeError(w, http.StatusInternalServerError, "cart storage unavailable")
		return
	}
	token, ok := s.bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	items := []cartItemPayload{}
	for _, line := range s.Carts[token] {
		item := cartItemPayload{ProductID: line.ProductID, Quantity: line.Quantity, Stock: 99}
		for _, p := range s.Products {
			if p.ID == line.ProductID {
				item.Name = p.Name
				item.Price = p.Price
				item.Image = p.Image
				item.Slug = p.Slug
				item.Stock = p.Stock
				break
			}
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCart {
		writeError(w, http.StatusInternalServerError, "cart storage unavailable")
		return
	}
	token, ok := s.bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	lines := s.Carts[token]
	for i := range lines {
		if lines[i].ProductID == req.ProductID {
			lines[i].Quantity += req.Quantity
			s.Carts[token] = lines
			writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
			return
		}
	}
	s.Carts[token] = append(lines, CartLine{ProductID: req.ProductID, Quantity: req.Quantity})
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCart {
		writeError(w, http.StatusInternalServerError, "cart storage unavailable")
		return
	}
	token, ok := s.bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		ProductID int64 `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	lines := s.Carts[token]
	for i, line := range lines {
		if line.ProductID == req.ProductID {
			s.Carts[token] = append(lines[:i], lines[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "removed"})
}

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, s.Profiles[s.Tokens[token]])
}

func (s *Server) handleProfilePatch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var profile domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.Profiles[s.Tokens[token]] = profile
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSavedCards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	cards := s.Cards[s.Tokens[token]]
	if cards == nil {
		cards = []domain.SavedCard{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleSaveCard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		CardNumber string `json:"cardNumber"`
		Expiry     string `json:"expiry"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	digits := strings.ReplaceAll(req.CardNumber, " ", "")
	if len(digits) < 12 {
		writeError(w, http.StatusBadRequest, "invalid card number")
		return
	}

	username := s.Tokens[token]
	s.Cards[username] = append(s.Cards[username], domain.SavedCard{
		ID:     int64(len(s.Cards[username]) + 1),
		Last4:  digits[len(digits)-4:],
		Brand:  "Visa",
		Expiry: req.Expiry,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"message": "card saved"})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailOrders {
		writeError(w, http.StatusInternalServerError, "order storage unavailable")
		return
	}

	var order domain.OrderSubmission
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(order.Items) == 0 {
		writeError(w, http.StatusBadRequest, "order has no items")
		return
	}
	s.Orders = append(s.Orders, order)
	writeJSON(w, http.StatusCreated, map[string]any{"id": len(s.Orders)})
}

// handleMyOrders serves the order history. The fake does not track order
// ownership, so an authenticated caller sees every submitted order.
func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bearer(r); !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	out := make([]map[string]any, 0, len(s.Orders))
	for i, order := range s.Orders {
		out = append(out, map[string]any{
			"id":              i + 1,
			"full_name":       order.FullName,
			"email":           order.Email,
			"total_amount":    order.TotalAmount,
			"shipping_method": order.ShippingMethod,
			"payment_method":  order.PaymentMethod,
			"paid":            false,
			"created_at":      time.Now().UTC().Format(time.RFC3339),
			"items":           order.Items,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
