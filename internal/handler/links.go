package handler

import (
	"net/http"

	"netcore/internal/domain"
)

// ListLinks returns all links
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.inventory.ListLinks(r.Context())
	if err != nil {
		h.fail(w, "Failed to list links", err)
		return
	}
	if links == nil {
		links = []domain.Link{}
	}
	h.writeJSON(w, links, http.StatusOK)
}

// GetLink returns a single link
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.inventory.GetLink(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "Failed to get link", err)
		return
	}
	h.writeJSON(w, link, http.StatusOK)
}

// CreateLink creates a manually drawn link
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var link domain.Link
	if !h.decode(w, r, &link) {
		return
	}

	if err := h.inventory.CreateLink(r.Context(), &link); err != nil {
		h.fail(w, "Failed to create link", err)
		return
	}
	h.writeJSON(w, link, http.StatusCreated)
}

// UpdateLink changes the link type
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	var patch domain.LinkPatch
	if !h.decode(w, r, &patch) {
		return
	}

	link, err := h.inventory.UpdateLink(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.fail(w, "Failed to update link", err)
		return
	}
	h.writeJSON(w, link, http.StatusOK)
}

// DeleteLink deletes a link
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.DeleteLink(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, "Failed to delete link", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
