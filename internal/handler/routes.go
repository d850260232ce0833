package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Middleware is the set of middleware the router wires in. Nil entries are skipped.
type Middleware struct {
	Logging   mux.MiddlewareFunc
	Metrics   mux.MiddlewareFunc
	Auth      mux.MiddlewareFunc
	General   mux.MiddlewareFunc
	AuthLimit mux.MiddlewareFunc
	CardLimit mux.MiddlewareFunc
}

// chain wraps h so that the first middleware runs first
func chain(h http.HandlerFunc, mws ...mux.MiddlewareFunc) http.Handler {
	var out http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			out = mws[i](out)
		}
	}
	return out
}

func use(r *mux.Router, mws ...mux.MiddlewareFunc) {
	for _, mw := range mws {
		if mw != nil {
			r.Use(mw)
		}
	}
}

// NewRouter builds the HTTP routes
func NewRouter(h *Handler, mw Middleware, metricsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = chain(notFound, mw.Logging)
	r.MethodNotAllowedHandler = chain(methodNotAllowed, mw.Logging)
	use(r, mw.Logging, mw.Metrics)

	// Operational routes
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	r.Handle("/", chain(h.Index, mw.General)).Methods(http.MethodGet)

	// Public routes, also served without the /api/users prefix
	for _, prefix := range []string{"/api/users", ""} {
		r.Handle(prefix+"/register", chain(h.Register, mw.General, mw.AuthLimit)).Methods(http.MethodPost)
		r.Handle(prefix+"/login", chain(h.Login, mw.General, mw.AuthLimit)).Methods(http.MethodPost)
	}

	// Protected user routes
	r.Handle("/api/users/profile", chain(h.Profile, mw.General, mw.Auth)).Methods(http.MethodGet)
	r.Handle("/api/users", chain(h.ListUsers, mw.General, mw.Auth)).Methods(http.MethodGet)

	// Card routes
	cards := r.PathPrefix("/api/cards").Subrouter()
	use(cards, mw.General, mw.CardLimit, mw.Auth)
	cards.HandleFunc("", h.CreateCard).Methods(http.MethodPost)
	cards.HandleFunc("", h.ListCards).Methods(http.MethodGet)
	cards.HandleFunc("/{id}", h.GetCard).Methods(http.MethodGet)
	cards.HandleFunc("/{id}", h.UpdateCard).Methods(http.MethodPut)
	cards.HandleFunc("/{id}", h.DeleteCard).Methods(http.MethodDelete)
	cards.HandleFunc("/{id}/balance", h.UpdateBalance).Methods(http.MethodPatch)

	return r
}
