package server

import (
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"

	"github.com/desertthunder/linkbox/internal/shared"
)

// DefaultCallbackPath is where the provider redirects after consent.
const DefaultCallbackPath = "/auth/callback"

// OAuthResult is the outcome of the one callback an [OAuthHandler] accepts.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

var page = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>linkbox</title>
  <style>
    body { font-family: system-ui, sans-serif; display: flex; align-items: center; justify-content: center;
           height: 100vh; margin: 0; background: #f5f5f5; }
    main { text-align: center; background: white; padding: 2rem; border-radius: 8px; }
    h1 { margin: 0 0 1rem 0; color: {{if .OK}}#3b82f6{{else}}#dc2626{{end}}; }
    p { color: #666; margin: 0; }
  </style>
</head>
<body>
  <main>
    <h1>{{.Title}}</h1>
    <p>{{.Detail}}</p>
  </main>
</body>
</html>
`))

type pageData struct {
	OK     bool
	Title  string
	Detail string
}

// OAuthHandler completes the authorization code flow: it checks state, exchanges the code
// and hands the token to [OAuthHandler.Result]. Only the first request is processed.
type OAuthHandler struct {
	config *oauth2.Config
	state  string
	path   string
	hit    atomic.Bool
	once   sync.Once
	result chan OAuthResult
}

// NewOAuthHandler creates a handler expecting state on path ([DefaultCallbackPath] when empty).
func NewOAuthHandler(config *oauth2.Config, state, path string) *OAuthHandler {
	if path == "" {
		path = DefaultCallbackPath
	}
	return &OAuthHandler{config: config, state: state, path: path, result: make(chan OAuthResult, 1)}
}

// Routes implements [Handler].
func (h *OAuthHandler) Routes() []string {
	return []string{http.MethodGet + " " + h.path}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.hit.CompareAndSwap(false, true) {
		h.render(w, http.StatusBadRequest, pageData{Title: "Already signed in", Detail: "This sign-in link was already used."})
		return
	}

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed))
		return
	}

	code := q.Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description")))
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err))
		return
	}

	h.Send(OAuthResult{Token: token})
	h.render(w, http.StatusOK, pageData{OK: true, Title: "Signed in to linkbox", Detail: "You can close this window and return to the terminal."})
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, err error) {
	h.Send(OAuthResult{err: err})
	h.render(w, status, pageData{Title: "Sign-in failed", Detail: err.Error()})
}

func (h *OAuthHandler) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page.Execute(w, data)
}

// Send delivers result once; later calls are ignored.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.result <- result
		close(h.result)
	})
}

// Result yields exactly one [OAuthResult] and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.result
}
