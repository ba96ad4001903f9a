package mock

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signingKey signs the JWTs the fake backend issues. Clients never verify
// signatures, so a fixed key is enough.
var signingKey = []byte("datamart-mock-backend")

// MarketplaceConfig configures the fake marketplace backend.
type MarketplaceConfig struct {
	// TokenLifetime is how long issued JWTs stay valid (default 1h).
	TokenLifetime time.Duration

	// OpaqueTokens issues random hex strings instead of JWTs.
	OpaqueTokens bool

	// RegisterIssuesToken makes /api/auth/register answer {token} instead of
	// the created user.
	RegisterIssuesToken bool

	// Clock drives token expiry and timestamps (defaults to RealClock).
	Clock Clock
}

// Account is a user known to the fake backend.
type Account struct {
	Identifier string
	Secret     string
	Profile    map[string]any
}

// RecordedRequest is one request received by the fake backend.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a canned answer installed with Override.
type Response struct {
	Status int
	Body   any
	// Delay holds the response back, e.g. to trip a client timeout.
	Delay time.Duration
}

// MarketplaceServer is an in-memory fake of the marketplace REST backend
// served over httptest. It implements the auth endpoints plus the dashboard,
// data, subscription and settings resources, and records every request.
type MarketplaceServer struct {
	config MarketplaceConfig
	clock  Clock
	srv    *httptest.Server

	mu                 sync.Mutex
	accounts           map[string]*Account
	tokens             map[string]string // token -> identifier
	oauthCodes         map[string]string // provider:code -> identifier
	verificationTokens map[string]string // token -> identifier
	verified           map[string]bool
	overrides          map[string]Response
	requests           []RecordedRequest

	dataPoints    []map[string]any
	subscriptions map[string]map[string]any
	apiKeys       map[string]map[string]any
	profiles      map[string]map[string]any  // identifier -> edited profile fields
	notifications map[string]map[string]bool // identifier -> preferences
	nextID        int
}

// NewMarketplaceServer starts a fake backend. Close it when done.
func NewMarketplaceServer(config MarketplaceConfig) *MarketplaceServer {
	if config.TokenLifetime == 0 {
		config.TokenLifetime = time.Hour
	}
	clock := config.Clock
	if clock == nil {
		clock = RealClock{}
	}

	s := &MarketplaceServer{
		config:             config,
		clock:              clock,
		accounts:           make(map[string]*Account),
		tokens:             make(map[string]string),
		oauthCodes:         make(map[string]string),
		verificationTokens: make(map[string]string),
		verified:           make(map[string]bool),
		overrides:          make(map[string]Response),
		subscriptions:      make(map[string]map[string]any),
		apiKeys:            make(map[string]map[string]any),
		profiles:           make(map[string]map[string]any),
		notifications:      make(map[string]map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", s.handleMe)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("POST /api/auth/oauth/callback", s.handleOAuthCallback)
	mux.HandleFunc("POST /api/auth/verify-email", s.handleVerifyEmail)
	mux.HandleFunc("GET /api/dashboard", s.authenticated(s.handleDashboard))
	mux.HandleFunc("GET /api/data", s.authenticated(s.handleListData))
	mux.HandleFunc("POST /api/data/submit", s.authenticated(s.handleSubmitData))
	mux.HandleFunc("GET /api/subscriptions", s.authenticated(s.handleListSubscriptions))
	mux.HandleFunc("POST /api/subscriptions", s.authenticated(s.handleCreateSubscription))
	mux.HandleFunc("PUT /api/subscriptions/{id}", s.authenticated(s.handleUpdateSubscription))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.authenticated(s.handleDeleteSubscription))
	mux.HandleFunc("GET /api/settings", s.authenticated(s.handleSettings))
	mux.HandleFunc("PUT /api/settings/profile", s.authenticated(s.handleUpdateProfile))
	mux.HandleFunc("PUT /api/settings/notifications", s.authenticated(s.handleUpdateNotifications))
	mux.HandleFunc("POST /api/settings/api-keys", s.authenticated(s.handleCreateAPIKey))
	mux.HandleFunc("DELETE /api/settings/api-keys/{id}", s.authenticated(s.handleDeleteAPIKey))

	s.srv = httptest.NewServer(s.record(mux))
	return s
}

// URL returns the base URL of the fake backend.
func (s *MarketplaceServer) URL() string {
	return s.srv.URL
}

// Close shuts the server down.
func (s *MarketplaceServer) Close() {
	s.srv.Close()
}

// AddAccount registers a user that can log in with identifier/secret.
// The profile is what /api/auth/me returns for that user.
func (s *MarketplaceServer) AddAccount(identifier, secret string, profile map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile == nil {
		profile = map[string]any{"email": identifier}
	}
	s.accounts[identifier] = &Account{Identifier: identifier, Secret: secret, Profile: profile}
}

// BindToken makes token a valid bearer credential for identifier.
func (s *MarketplaceServer) BindToken(token, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = identifier
}

// IssueToken creates and binds a fresh token for identifier.
func (s *MarketplaceServer) IssueToken(identifier string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(identifier)
}

// RevokeToken invalidates a token.
func (s *MarketplaceServer) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// TokenValid reports whether the backend still accepts token.
func (s *MarketplaceServer) TokenValid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[token]
	return ok
}

// AddOAuthCode makes code redeemable once for provider, logging in identifier.
func (s *MarketplaceServer) AddOAuthCode(provider, code, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oauthCodes[provider+":"+code] = identifier
}

// AddVerificationToken makes token confirm the email of identifier.
func (s *MarketplaceServer) AddVerificationToken(token, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verificationTokens[token] = identifier
}

// Verified reports whether identifier confirmed their email.
func (s *MarketplaceServer) Verified(identifier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verified[identifier]
}

// AddDataPoint seeds the data explorer. Missing id and created_at are filled in.
func (s *MarketplaceServer) AddDataPoint(point map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := point["id"]; !ok {
		point["id"] = s.newIDLocked("dp")
	}
	if _, ok := point["created_at"]; !ok {
		point["created_at"] = s.clock.Now().UTC().Format(time.RFC3339)
	}
	s.dataPoints = append(s.dataPoints, point)
}

// Override answers every request to method+path with resp until cleared.
func (s *MarketplaceServer) Override(method, path string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+path] = resp
}

// ClearOverride removes a canned response.
func (s *MarketplaceServer) ClearOverride(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, method+" "+path)
}

// Requests returns a copy of the request log.
func (s *MarketplaceServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount counts recorded requests to method+path.
func (s *MarketplaceServer) RequestCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// DataPointCount returns how many data points exist.
func (s *MarketplaceServer) DataPointCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dataPoints)
}

// SubscriptionCount returns how many subscriptions exist.
func (s *MarketplaceServer) SubscriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscriptions)
}

func (s *MarketplaceServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		override, ok := s.overrides[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if ok {
			if override.Delay > 0 {
				select {
				case <-time.After(override.Delay):
				case <-r.Context().Done():
					return
				}
			}
			writeJSON(w, override.Status, override.Body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *MarketplaceServer) authenticated(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier, ok := s.identify(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next(w, r, identifier)
	}
}

func (s *MarketplaceServer) identify(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", false
	}

	s.mu.Lock()
	identifier, ok := s.tokens[token]
	s.mu.Unlock()
	if !ok {
		return "", false
	}

	if !s.config.OpaqueTokens && strings.Count(token, ".") == 2 {
		claims := jwt.RegisteredClaims{}
		parser := jwt.NewParser(jwt.WithTimeFunc(s.clock.Now))
		if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
			return signingKey, nil
		}); err != nil {
			return "", false
		}
	}
	return identifier, true
}

func (s *MarketplaceServer) issueTokenLocked(identifier string) string {
	var token string
	if s.config.OpaqueTokens {
		token = randomHex(16)
	} else {
		now := s.clock.Now()
		claims := jwt.RegisteredClaims{
			Subject:   identifier,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenLifetime)),
			ID:        randomHex(8),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
		if err != nil {
			panic(fmt.Sprintf("mock: failed to sign token: %v", err))
		}
		token = signed
	}
	s.tokens[token] = identifier
	return token
}

func (s *MarketplaceServer) newIDLocked(prefix string) string {
	s.nextID++
	return prefix + "-" + strconv.Itoa(s.nextID)
}

func (s *MarketplaceServer) handleMe(w http.ResponseWriter, r *http.Request) {
	identifier, ok := s.identify(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	s.mu.Lock()
	account, ok := s.accounts[identifier]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, account.Profile)
}

func (s *MarketplaceServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
		Secret     string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[body.Identifier]
	if !ok || account.Secret != body.Secret {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": s.issueTokenLocked(body.Identifier),
		"token_type":   "bearer",
	})
}

func (s *MarketplaceServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[body.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	profile := map[string]any{
		"id":        s.newIDLocked("user"),
		"email":     body.Email,
		"full_name": body.FullName,
		"role":      "user",
		"is_active": true,
	}
	s.accounts[body.Email] = &Account{Identifier: body.Email, Secret: body.Password, Profile: profile}

	if s.config.RegisterIssuesToken {
		writeJSON(w, http.StatusCreated, map[string]string{"token": s.issueTokenLocked(body.Email)})
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (s *MarketplaceServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		s.RevokeToken(token)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *MarketplaceServer) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code     string `json:"code"`
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := body.Provider + ":" + body.Code
	identifier, ok := s.oauthCodes[key]
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid authorization code")
		return
	}
	delete(s.oauthCodes, key)
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": s.issueTokenLocked(identifier),
		"token_type":   "bearer",
	})
}

func (s *MarketplaceServer) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	identifier, ok := s.verificationTokens[body.Token]
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired verification token")
		return
	}
	delete(s.verificationTokens, body.Token)
	s.verified[identifier] = true
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (s *MarketplaceServer) handleDashboard(w http.ResponseWriter, _ *http.Request, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	high := 0
	for _, p := range s.dataPoints {
		if p["quality"] == "high" {
			high++
		}
	}
	quality := 0.0
	if len(s.dataPoints) > 0 {
		quality = float64(high) * 100 / float64(len(s.dataPoints))
	}
	active := 0
	for _, sub := range s.subscriptions {
		if sub["is_active"] == true {
			active++
		}
	}

	recent := s.dataPoints
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats": map[string]any{
			"total_data_points":    len(s.dataPoints),
			"active_subscriptions": active,
			"data_quality":         quality,
			"trend":                0,
		},
		"recent_data": recent,
	})
}

func (s *MarketplaceServer) handleListData(w http.ResponseWriter, r *http.Request, _ string) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeDetail(w, http.StatusUnprocessableEntity, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, p := range s.dataPoints {
		if c := q.Get("category"); c != "" && p["category"] != c {
			continue
		}
		if ql := q.Get("quality"); ql != "" && p["quality"] != ql {
			continue
		}
		if !inDateRange(p, q.Get("start_date"), q.Get("end_date")) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *MarketplaceServer) handleSubmitData(w http.ResponseWriter, r *http.Request, identifier string) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if c, _ := body["category"].(string); c == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "category is required")
		return
	}
	if v, ok := body["value"]; !ok || v == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "value is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	point := map[string]any{
		"id":            s.newIDLocked("dp"),
		"owner_id":      identifier,
		"quality":       "unverified",
		"privacy_level": "protected",
		"created_at":    s.clock.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range body {
		switch k {
		case "id", "owner_id", "created_at", "timestamp":
		default:
			point[k] = v
		}
	}
	s.dataPoints = append(s.dataPoints, point)
	writeJSON(w, http.StatusOK, point)
}

func inDateRange(point map[string]any, start, end string) bool {
	created, _ := point["created_at"].(string)
	ts, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return start == "" && end == ""
	}
	if start != "" {
		if st, err := time.Parse(time.RFC3339, start); err == nil && ts.Before(st) {
			return false
		}
	}
	if end != "" {
		if et, err := time.Parse(time.RFC3339, end); err == nil && ts.After(et) {
			return false
		}
	}
	return true
}

func (s *MarketplaceServer) handleListSubscriptions(w http.ResponseWriter, _ *http.Request, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, sub := range s.subscriptions {
		if sub["user_id"] == identifier {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["id"].(string) < out[j]["id"].(string)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *MarketplaceServer) handleCreateSubscription(w http.ResponseWriter, r *http.Request, identifier string) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if c, _ := body["category"].(string); c == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "category is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	body["id"] = s.newIDLocked("sub")
	body["user_id"] = identifier
	body["created_at"] = s.clock.Now().UTC().Format(time.RFC3339)
	if _, ok := body["is_active"]; !ok {
		body["is_active"] = true
	}
	s.subscriptions[body["id"].(string)] = body
	writeJSON(w, http.StatusCreated, body)
}

func (s *MarketplaceServer) handleUpdateSubscription(w http.ResponseWriter, r *http.Request, identifier string) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[r.PathValue("id")]
	if !ok || sub["user_id"] != identifier {
		writeDetail(w, http.StatusNotFound, "Subscription not found")
		return
	}
	for k, v := range body {
		switch k {
		case "id", "user_id", "created_at":
		default:
			sub[k] = v
		}
	}
	sub["updated_at"] = s.clock.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, sub)
}

func (s *MarketplaceServer) handleDeleteSubscription(w http.ResponseWriter, r *http.Request, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	sub, ok := s.subscriptions[id]
	if !ok || sub["user_id"] != identifier {
		writeDetail(w, http.StatusNotFound, "Subscription not found")
		return
	}
	delete(s.subscriptions, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *MarketplaceServer) handleSettings(w http.ResponseWriter, _ *http.Request, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := []map[string]any{}
	for _, k := range s.apiKeys {
		if k["user_id"] == identifier {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i]["id"].(string) < keys[j]["id"].(string)
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":       s.profileLocked(identifier),
		"api_keys":      keys,
		"notifications": s.notificationsLocked(identifier),
	})
}

func (s *MarketplaceServer) profileLocked(identifier string) map[string]any {
	profile := map[string]any{"email": identifier}
	if account, ok := s.accounts[identifier]; ok {
		profile["name"] = account.Profile["full_name"]
		if email, ok := account.Profile["email"]; ok {
			profile["email"] = email
		}
	}
	for k, v := range s.profiles[identifier] {
		profile[k] = v
	}
	return profile
}

func (s *MarketplaceServer) notificationsLocked(identifier string) map[string]bool {
	prefs := map[string]bool{"email": true, "webhook": true, "failure_alerts": true}
	for k, v := range s.notifications[identifier] {
		prefs[k] = v
	}
	return prefs
}

func (s *MarketplaceServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request, identifier string) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	for k, v := range body {
		text, ok := v.(string)
		switch {
		case k != "name" && k != "organization":
			writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("field %q cannot be changed", k))
			return
		case !ok:
			writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("field %q must be a string", k))
			return
		case k == "name" && text == "":
			writeDetail(w, http.StatusUnprocessableEntity, "name must not be empty")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	edited := s.profiles[identifier]
	if edited == nil {
		edited = make(map[string]any)
		s.profiles[identifier] = edited
	}
	for k, v := range body {
		edited[k] = v
	}
	writeJSON(w, http.StatusOK, s.profileLocked(identifier))
}

func (s *MarketplaceServer) handleUpdateNotifications(w http.ResponseWriter, r *http.Request, identifier string) {
	var body map[string]bool
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	for k := range body {
		switch k {
		case "email", "webhook", "failure_alerts":
		default:
			writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown notification %q", k))
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prefs := s.notifications[identifier]
	if prefs == nil {
		prefs = make(map[string]bool)
		s.notifications[identifier] = prefs
	}
	for k, v := range body {
		prefs[k] = v
	}
	writeJSON(w, http.StatusOK, s.notificationsLocked(identifier))
}

func (s *MarketplaceServer) handleCreateAPIKey(w http.ResponseWriter, r *http.Request, identifier string) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	secret := "dm_" + randomHex(16)
	key := map[string]any{
		"id":         s.newIDLocked("key"),
		"user_id":    identifier,
		"name":       body.Name,
		"key_prefix": secret[:8],
		"is_active":  true,
		"created_at": s.clock.Now().UTC().Format(time.RFC3339),
	}
	s.apiKeys[key["id"].(string)] = key

	full := make(map[string]any, len(key)+1)
	for k, v := range key {
		full[k] = v
	}
	full["key"] = secret
	writeJSON(w, http.StatusCreated, full)
}

func (s *MarketplaceServer) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	key, ok := s.apiKeys[id]
	if !ok || key["user_id"] != identifier {
		writeDetail(w, http.StatusNotFound, "API key not found")
		return
	}
	delete(s.apiKeys, id)
	w.WriteHeader(http.StatusNoContent)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if status == 0 {
		status = http.StatusOK
	}
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("mock: crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
