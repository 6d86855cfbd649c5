package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Messages returned by the demo shop API
const (
	MsgMethodNotSupported = "This request method is not supported."
	MsgSearchMissing      = "Bad request, search_product parameter is missing in POST request."
	MsgLoginMissing       = "Bad request, email or password parameter is missing in POST request."
	MsgUserExists         = "User exists!"
	MsgUserNotFound       = "User not found!"
	MsgUserCreated        = "User created!"
	MsgEmailExists        = "Email already exists!"
	MsgAccountDeleted     = "Account deleted!"
	MsgAccountNotFound    = "Account not found!"
	MsgUserUpdated        = "User updated!"
	MsgDetailNotFound     = "Account not found with this email, try another email!"
)

// ShopServer is an in-memory stand-in for the demo e-commerce API. Like the
// real site it answers every API call with HTTP 200 and puts the logical
// status in a "responseCode" body field, and it only reads form-encoded
// parameters: JSON bodies look like missing parameters.
type ShopServer struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]map[string]string
	requests []RecordedRequest
}

// RecordedRequest is a request seen by ShopServer
type RecordedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Body        string
}

// NewShopServer starts a fake shop seeded with the test@test.com / test12345 account.
func NewShopServer() *ShopServer {
	s := &ShopServer{
		accounts: map[string]map[string]string{
			"test@test.com": {"email": "test@test.com", "password": "test12345", "name": "Test User"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/productsList", s.productsList)
	mux.HandleFunc("/api/brandsList", s.brandsList)
	mux.HandleFunc("/api/searchProduct", s.searchProduct)
	mux.HandleFunc("/api/verifyLogin", s.verifyLogin)
	mux.HandleFunc("/api/createAccount", s.createAccount)
	mux.HandleFunc("/api/deleteAccount", s.deleteAccount)
	mux.HandleFunc("/api/updateAccount", s.updateAccount)
	mux.HandleFunc("/api/getUserDetailByEmail", s.userDetail)

	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// APIURL returns the base URL of the API, e.g. http://127.0.0.1:1234/api
func (s *ShopServer) APIURL() string {
	return s.URL + "/api"
}

// Requests returns a copy of the requests received so far.
func (s *ShopServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// HasAccount reports whether an account exists for email.
func (s *ShopServer) HasAccount(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[email]
	return ok
}

func (s *ShopServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, payload map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

func reply(w http.ResponseWriter, code int, message string) {
	writeJSON(w, map[string]interface{}{"responseCode": code, "message": message})
}

// formParams reads form-encoded parameters for any method, including DELETE.
func formParams(r *http.Request) url.Values {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return url.Values{}
	}
	body, _ := io.ReadAll(r.Body)
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return url.Values{}
	}
	return values
}

var products = []map[string]interface{}{
	{"id": 1, "name": "Blue Top", "price": "Rs. 500", "brand": "Polo", "category": map[string]interface{}{"category": "Tops"}},
	{"id": 2, "name": "Men Tshirt", "price": "Rs. 400", "brand": "H&M", "category": map[string]interface{}{"category": "Tshirts"}},
	{"id": 3, "name": "Sleeveless Dress", "price": "Rs. 1000", "brand": "Madame", "category": map[string]interface{}{"category": "Dress"}},
}

func (s *ShopServer) productsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		reply(w, 405, MsgMethodNotSupported)
		return
	}
	writeJSON(w, map[string]interface{}{"responseCode": 200, "products": products})
}

func (s *ShopServer) brandsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		reply(w, 405, MsgMethodNotSupported)
		return
	}
	writeJSON(w, map[string]interface{}{"responseCode": 200, "brands": []map[string]interface{}{
		{"id": 1, "brand": "Polo"},
		{"id": 2, "brand": "H&M"},
		{"id": 3, "brand": "Madame"},
	}})
}

func (s *ShopServer) searchProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		reply(w, 405, MsgMethodNotSupported)
		return
	}
	term := formParams(r).Get("search_product")
	if term == "" {
		reply(w, 400, MsgSearchMissing)
		return
	}
	var found []map[string]interface{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p["name"].(string)), strings.ToLower(term)) {
			found = append(found, p)
		}
	}
	writeJSON(w, map[string]interface{}{"responseCode": 200, "products": found})
}

func (s *ShopServer) verifyLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		reply(w, 405, MsgMethodNotSupported)
		return
	}
	params := formParams(r)
	email, password := params.Get("email"), params.Get("password")
	if email == "" || password == "" {
		reply(w, 400, MsgLoginMissing)
		return
	}
	s.mu.Lock()
	account, ok := s.accounts[email]
	s.mu.Unlock()
	if ok && account["password"] == password {
		reply(w, 200, MsgUserExists)
		return
	}
	reply(w, 404, MsgUserNotFound)
}

// AccountFields lists the parameters createAccount and updateAccount require.
var AccountFields = []string{
	"name", "email", "password", "title", "birth_date", "birth_month", "birth_year",
	"firstname", "lastname", "company", "address1", "address2", "country",
	"zipcode", "state", "city", "mobile_number",
}

func missingAccountField(params url.Values) string {
	for _, field := range AccountFields {
		if params.Get(field) == "" {
			return field
		}
	}
	return ""
}

func (s *ShopServer) createAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		reply(w, 405, MsgMethodNotSupported)
		return
	}
	params := formParams(r)
	if field := missingAccountField(params); field != "" {
		reply(w, 400, "Bad request, "+field+" parameter is missing in POST request.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := params.Get("email")
	if _, exists := s.accounts[email]; exists {
		reply(w, 400, MsgEmailExists)
		return
	}
	account := make(map[string]string, len(AccountFields))
	for _, field := range AccountFields {
		account[field] = params.Get(field)
	}
	s.accounts[email] = account
	reply(w, 201, MsgUserCreated)
}

func (s *ShopServer) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		reply(w, 405, MsgMethodNotSupported)
		return
	}
	params := formParams(r)
	email, password := params.Get("email"), params.Get("password")
	if email == "" || password == "" {
		reply(w, 400, "Bad request, email parameter is missing in DELETE request.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[email]
	if !ok || account["password"] != password {
		reply(w, 404, MsgAccountNotFound)
		return
	}
	delete(s.accounts, email)
	reply(w, 200, MsgAccountDeleted)
}

// updateAccount only exists without a trailing path segment, so
// /api/updateAccount/<email> falls through to the mux's 404.
func (s *ShopServer) updateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		reply(w, 405, MsgMethodNotSupported)
		return
	}
	params := formParams(r)
	if field := missingAccountField(params); field != "" {
		reply(w, 400, "Bad request, "+field+" parameter is missing in PUT request.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := params.Get("email")
	account, ok := s.accounts[email]
	if !ok || account["password"] != params.Get("password") {
		reply(w, 404, MsgAccountNotFound)
		return
	}
	for _, field := range AccountFields {
		account[field] = params.Get(field)
	}
	reply(w, 200, MsgUserUpdated)
}

func (s *ShopServer) userDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		reply(w, 405, MsgMethodNotSupported)
		return
	}
	email := r.URL.Query().Get("email")
	if email == "" {
		reply(w, 400, "Bad request, email parameter is missing in GET request.")
		return
	}

	s.mu.Lock()
	account, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		reply(w, 404, MsgDetailNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{"responseCode": 200, "user": map[string]interface{}{
		"email": account["email"],
		"name":  account["name"],
	}})
}

// NewSlowServer answers every request after delay, or when the client goes away.
func NewSlowServer(delay time.Duration) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "slow response"}`))
	}))
}

// NewTextServer answers every request with a fixed status and plain-text body.
func NewTextServer(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}
