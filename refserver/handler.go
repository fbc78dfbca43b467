package refserver

import (
	"encoding/json"
	"mime"
	"net/http"
	"regexp"

	"github.com/sessionops/session-contract-tests/config"
	"github.com/sessionops/session-contract-tests/framework"
)

var validToken = regexp.MustCompile(`^[A-Z0-9]{32}$`)

// The three action literals. Matching is case-sensitive; anything else is an
// unrecognized action, not a variant spelling.
const (
	actionLogin  = "LOGIN"
	actionAction = "ACTION"
	actionLogout = "LOGOUT"
)

// Options selects the contract's two implementation-defined behaviors.
type Options struct {
	Relogin       config.ReloginPolicy
	LogoutUnknown config.LogoutPolicy
}

// Handler serves POST /endpoint. Shape and authorization problems are rejected at the
// HTTP layer before any state is touched; everything past that point is answered with
// HTTP 200 and an envelope.
type Handler struct {
	store  Store
	auth   AuthBackend
	action ActionBackend
	apiKey string
	opts   Options
	logger framework.Logger
}

func NewHandler(
	store Store,
	auth AuthBackend,
	action ActionBackend,
	apiKey string,
	opts Options,
	logger framework.Logger,
) *Handler {
	if opts.Relogin == "" {
		opts.Relogin = config.ReloginOverwrite
	}
	if opts.LogoutUnknown == "" {
		opts.LogoutUnknown = config.LogoutIdempotent
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Handler{
		store:  store,
		auth:   auth,
		action: action,
		apiKey: apiKey,
		opts:   opts,
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/endpoint" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Header.Get("X-Api-Key") != h.apiKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	// An absent field or an empty action is a shape failure. A present-but-empty
	// token is not; it falls through to token validation and gets an ERROR envelope.
	tokenValue, hasToken := formValue(r, "token")
	action, hasAction := formValue(r, "action")
	if !hasToken || !hasAction || action == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// The transport shape is fine; from here on every outcome is an envelope.
	if !validToken.MatchString(tokenValue) {
		h.writeError(w, "invalid token format")
		return
	}

	switch action {
	case actionLogin:
		h.handleLogin(w, r, tokenValue)
	case actionAction:
		h.handleAction(w, r, tokenValue)
	case actionLogout:
		h.handleLogout(w, tokenValue)
	default:
		h.writeError(w, "unrecognized action")
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request, token string) {
	if h.opts.Relogin == config.ReloginReject && h.store.LoggedIn(token) {
		h.writeError(w, "token is already logged in")
		return
	}
	if err := h.auth.Authenticate(r.Context(), token); err != nil {
		h.logger.Printf("auth backend failed for %s: %s", token, err)
		h.writeError(w, "authentication service unavailable")
		return
	}
	h.store.Login(token)
	h.writeOK(w)
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request, token string) {
	if !h.store.LoggedIn(token) {
		h.writeError(w, "token is not logged in")
		return
	}
	if err := h.action.Do(r.Context(), token); err != nil {
		h.logger.Printf("action backend failed for %s: %s", token, err)
		h.writeError(w, "action service unavailable")
		return
	}
	h.writeOK(w)
}

func (h *Handler) handleLogout(w http.ResponseWriter, token string) {
	existed := h.store.Logout(token)
	if !existed && h.opts.LogoutUnknown == config.LogoutStrict {
		h.writeError(w, "token is not logged in")
		return
	}
	h.writeOK(w)
}

func formValue(r *http.Request, name string) (string, bool) {
	values, ok := r.PostForm[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (h *Handler) writeOK(w http.ResponseWriter) {
	h.writeJSON(w, map[string]string{"result": "OK"})
}

func (h *Handler) writeError(w http.ResponseWriter, message string) {
	h.writeJSON(w, map[string]string{"result": "ERROR", "message": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, body map[string]string) {
	data, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
