package server

import (
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	"golang.org/x/oauth2"
)

// Spotify implicit grant routes. The redirect URI registered with Spotify must point at CallbackPath.
const (
	CallbackPath = "/spotify/callback"
	TokenPath    = "/spotify/token"
)

// OAuthResult contains the result of a Spotify sign-in.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><title>Connecting Spotify</title></head>
<body>
<p id="status">Connecting your Spotify account...</p>
<script>
  var fragment = window.location.hash.substring(1);
  if (fragment) {
    window.location.replace({{.}} + "?" + fragment);
  } else {
    document.getElementById("status").textContent = "Spotify did not return a token. Try signing in again.";
  }
</script>
</body>
</html>
`))

// CallbackPage serves the page Spotify redirects to. The token arrives in the URL fragment, which browsers never
// send to servers, so the page forwards the fragment to tokenPath as a query string.
func CallbackPage(tokenPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := callbackPage.Execute(w, tokenPath); err != nil {
			http.Error(w, "failed to render callback page", http.StatusInternalServerError)
		}
	})
}

// OAuthHandler receives one Spotify implicit grant redirect for the CLI sign-in flow.
type OAuthHandler struct {
	state       string
	page        http.Handler
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler that accepts only redirects carrying state.
func NewOAuthHandler(state string) *OAuthHandler {
	return &OAuthHandler{
		state:      state,
		page:       CallbackPage(TokenPath),
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET " + CallbackPath, "GET " + TokenPath}
}

// ServeHTTP serves the forwarding page, then validates the forwarded token and state.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == CallbackPath {
		h.page.ServeHTTP(w, r)
		return
	}

	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	token, state, err := services.ParseFragment(r.URL.RawQuery)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}
	if state != h.state {
		h.Send(OAuthResult{err: shared.ErrInvalidState})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Spotify Connected</title></head>
<body>
<h1>✓ Spotify connected</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>
`)
}

// Send sends the result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving sign-in completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
