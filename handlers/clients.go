package handlers

import (
	"net/http"

	"fireops/listing"
	"fireops/middleware"
	"fireops/models"
	"fireops/service"
)

type ClientHandler struct {
	clients *service.ClientService
}

func NewClientHandler(clients *service.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// List returns clients by company name, optionally narrowed by ?search=.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context(), listing.ClientFilter{Search: queryValue(r, "search")})
	if err != nil {
		degraded(r, "clients", err)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"clients":  []models.Client{},
			"count":    0,
			"degraded": true,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"clients": clients,
		"count":   len(clients),
	})
}

// Get returns the client detail page: the client, its visits and its tasks.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.clients.Detail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.ClientInput
	if !decodeJSON(w, r, &in) {
		return
	}
	client, err := h.clients.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.LoggerFrom(r.Context()).Info().Str("client_id", client.ID).Msg("client created")
	writeJSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in models.ClientInput
	if !decodeJSON(w, r, &in) {
		return
	}
	client, err := h.clients.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// Delete removes the client record only. Its visits and tasks stay and
// show without a client afterwards.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Client deleted"})
}
