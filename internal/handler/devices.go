package handler

import (
	"net/http"

	"netcore/internal/domain"
)

// ListDevices returns all devices
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.inventory.ListDevices(r.Context())
	if err != nil {
		h.fail(w, "Failed to list devices", err)
		return
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	h.writeJSON(w, devices, http.StatusOK)
}

// GetDevice returns a single device
func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.inventory.GetDevice(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "Failed to get device", err)
		return
	}
	h.writeJSON(w, device, http.StatusOK)
}

// CreateDevice creates a device from a manually entered record
func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var device domain.Device
	if !h.decode(w, r, &device) {
		return
	}

	if err := h.inventory.CreateDevice(r.Context(), &device); err != nil {
		h.fail(w, "Failed to create device", err)
		return
	}
	h.writeJSON(w, device, http.StatusCreated)
}

// UpdateDevice applies a partial update
func (h *Handler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	var patch domain.DevicePatch
	if !h.decode(w, r, &patch) {
		return
	}

	device, err := h.inventory.UpdateDevice(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.fail(w, "Failed to update device", err)
		return
	}
	h.writeJSON(w, device, http.StatusOK)
}

// DeleteDevice deletes a device and its links
func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.DeleteDevice(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, "Failed to delete device", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
