// Package mock provides test doubles for datamart components.
//
// MarketplaceServer is an httptest-backed fake of the marketplace REST backend.
// It implements the /api/auth endpoints (login, register, logout, me, OAuth
// callback, email verification) and the dashboard, data, subscription and
// settings resources with in-memory state. Tests seed it with accounts, OAuth
// codes and data points, install canned responses with Override to simulate
// failures, and inspect the request log afterwards:
//
//	s := mock.NewMarketplaceServer(mock.MarketplaceConfig{})
//	defer s.Close()
//	s.AddAccount("a@b.com", "secret", map[string]any{"id": 1, "email": "a@b.com"})
//	s.Override(http.MethodPost, "/api/auth/logout", mock.Response{Status: 500})
//
// Tokens issued by the fake are HS256 JWTs with sub and exp claims, like the
// real backend's, unless MarketplaceConfig.OpaqueTokens is set.
//
// ProviderServer stands in for an identity provider's authorization page.
// It approves every request and redirects to the client's callback with a
// code it registers on the MarketplaceServer, so OAuth logins can run end to
// end without a browser.
//
// MockClock drives expiry in both the fake backend and the session token
// store without waiting for real time to pass.
package mock
