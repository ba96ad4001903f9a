package session

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"datamart/pkg/logging"
)

// CallbackTimeout is how long to wait for the provider to redirect back.
const CallbackTimeout = 5 * time.Minute

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

var (
	callbackSuccessTmpl = template.Must(template.New("success").Parse(callbackSuccessHTML))
	callbackErrorTmpl   = template.Must(template.New("error").Parse(callbackErrorHTML))
)

// CallbackResult holds the query parameters of the provider redirect.
type CallbackResult struct {
	// Code is the authorization code from the OAuth provider.
	Code string

	// State is the state parameter to verify against the pending flow.
	State string

	// Error is the error code if the authorization failed.
	Error string

	// ErrorDescription is a human-readable error description.
	ErrorDescription string
}

// IsError returns true if the provider reported an error.
func (r *CallbackResult) IsError() bool {
	return r.Error != ""
}

// CallbackServer is a temporary loopback HTTP server that receives exactly
// one OAuth redirect.
type CallbackServer struct {
	port     int
	server   *http.Server
	listener net.Listener
	resultCh chan *CallbackResult
	errorCh  chan error
	once     sync.Once
	stopOnce sync.Once
}

// NewCallbackServer creates a callback server for the given port.
// Port 0 picks a free port.
func NewCallbackServer(port int) *CallbackServer {
	return &CallbackServer{
		port:     port,
		resultCh: make(chan *CallbackResult, 1),
		errorCh:  make(chan error, 1),
	}
}

// Start binds 127.0.0.1 and begins serving. The server stops when ctx is
// cancelled. Returns the redirect URI to register with the provider.
func (s *CallbackServer) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, s.handleCallback)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errorCh <- err:
			default:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return s.RedirectURI(), nil
}

// WaitForCallback blocks until the redirect arrives, the server fails, or
// ctx is done.
func (s *CallbackServer) WaitForCallback(ctx context.Context) (*CallbackResult, error) {
	select {
	case result := <-s.resultCh:
		return result, nil
	case err := <-s.errorCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	handled := false
	s.once.Do(func() {
		handled = true
		s.processCallback(w, r)
	})

	if !handled {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

// callbackHeaders keep the landing page from being framed, cached or
// leaking the code through the referrer.
var callbackHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Content-Security-Policy": "default-src 'self'; style-src 'unsafe-inline'",
	"Referrer-Policy":         "no-referrer",
	"Cache-Control":           "no-store",
	"Content-Type":            "text/html; charset=utf-8",
}

func (s *CallbackServer) processCallback(w http.ResponseWriter, r *http.Request) {
	for k, v := range callbackHeaders {
		w.Header().Set(k, v)
	}

	query := r.URL.Query()
	result := &CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}
	if result.Code == "" && !result.IsError() {
		result.Error = "invalid_request"
		result.ErrorDescription = "the redirect carried no authorization code"
	}

	page, data := callbackSuccessTmpl, map[string]string(nil)
	if result.IsError() {
		w.WriteHeader(http.StatusBadRequest)
		page = callbackErrorTmpl
		data = map[string]string{"Error": result.Error, "Description": result.ErrorDescription}
	}
	if err := page.Execute(w, data); err != nil {
		logging.Warn("OAuth", "Rendering the callback page: %v", err)
	}

	select {
	case s.resultCh <- result:
	default:
	}

	// The page needs a moment to reach the browser.
	go func() {
		time.Sleep(500 * time.Millisecond)
		s.Stop()
	}()
}

// Stop shuts the server down. It is safe to call more than once.
func (s *CallbackServer) Stop() {
	s.stopOnce.Do(func() {
		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.server.Shutdown(ctx)
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

// RedirectURI returns the loopback redirect URI.
func (s *CallbackServer) RedirectURI() string {
	return DefaultRedirectURL(s.port)
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	return s.port
}
