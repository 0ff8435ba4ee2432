package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"netcore/internal/domain"
	"netcore/internal/scan"
	"netcore/internal/service"
)

// Inventory is the device and link surface the API exposes
type Inventory interface {
	Ready(ctx context.Context) error
	ListDevices(ctx context.Context) ([]domain.Device, error)
	GetDevice(ctx context.Context, id string) (*domain.Device, error)
	CreateDevice(ctx context.Context, device *domain.Device) error
	UpdateDevice(ctx context.Context, id string, patch domain.DevicePatch) (*domain.Device, error)
	DeleteDevice(ctx context.Context, id string) error
	ListLinks(ctx context.Context) ([]domain.Link, error)
	GetLink(ctx context.Context, id string) (*domain.Link, error)
	CreateLink(ctx context.Context, link *domain.Link) error
	UpdateLink(ctx context.Context, id string, patch domain.LinkPatch) (*domain.Link, error)
	DeleteLink(ctx context.Context, id string) error
	Export(ctx context.Context, format string, w io.Writer) (string, error)
}

// DiscoveryRunner imports the scan documents found in a directory
type DiscoveryRunner interface {
	ImportDir(ctx context.Context, dir string) (service.ImportResult, error)
}

// Handler serves the REST API
type Handler struct {
	inventory Inventory
	discovery DiscoveryRunner
	scanDir   string
	log       zerolog.Logger
}

// New creates a new API handler
func New(inventory Inventory, log zerolog.Logger) *Handler {
	return &Handler{
		inventory: inventory,
		log:       log.With().Str("component", "api").Logger(),
	}
}

// SetDiscoveryRunner enables POST /api/v1/discovery/run against scanDir
func (h *Handler) SetDiscoveryRunner(d DiscoveryRunner, scanDir string) {
	h.discovery = d
	h.scanDir = scanDir
}

// Routes returns the API mux wrapped in the standard middleware chain
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /health/live", h.Live)
	mux.HandleFunc("GET /health/ready", h.Ready)

	// Devices
	mux.HandleFunc("GET /api/v1/devices", h.ListDevices)
	mux.HandleFunc("POST /api/v1/devices", h.CreateDevice)
	mux.HandleFunc("GET /api/v1/devices/{id}", h.GetDevice)
	mux.HandleFunc("PATCH /api/v1/devices/{id}", h.UpdateDevice)
	mux.HandleFunc("DELETE /api/v1/devices/{id}", h.DeleteDevice)

	// Links
	mux.HandleFunc("GET /api/v1/links", h.ListLinks)
	mux.HandleFunc("POST /api/v1/links", h.CreateLink)
	mux.HandleFunc("GET /api/v1/links/{id}", h.GetLink)
	mux.HandleFunc("PATCH /api/v1/links/{id}", h.UpdateLink)
	mux.HandleFunc("DELETE /api/v1/links/{id}", h.DeleteLink)

	// Export
	mux.HandleFunc("GET /api/v1/export/{format}", h.Export)

	// Discovery
	mux.HandleFunc("POST /api/v1/discovery/run", h.RunDiscovery)

	return Chain(mux,
		Recover(h.log),
		CORS,
		Logger(h.log),
	)
}

// Error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Live reports that the process is serving
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Ready reports whether the store is reachable
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.Ready(r.Context()); err != nil {
		h.writeError(w, "Store unavailable", err.Error(), http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, map[string]string{"status": "ready"}, http.StatusOK)
}

// RunDiscovery imports the scan documents from the configured directory
func (h *Handler) RunDiscovery(w http.ResponseWriter, r *http.Request) {
	if h.discovery == nil {
		h.writeError(w, "Discovery not configured", "No scan directory is configured", http.StatusServiceUnavailable)
		return
	}

	result, err := h.discovery.ImportDir(r.Context(), h.scanDir)
	if err != nil {
		h.fail(w, "Discovery run failed", err)
		return
	}
	h.writeJSON(w, result, http.StatusOK)
}

// Export downloads the inventory as json, yaml or ansible-inventory
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	var buf bytes.Buffer
	contentType, err := h.inventory.Export(r.Context(), format, &buf)
	if err != nil {
		h.fail(w, "Failed to export inventory", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename(format))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func exportFilename(format string) string {
	switch format {
	case "ansible-inventory":
		return "inventory.yml"
	case "yaml":
		return "netcore.yml"
	default:
		return "netcore." + format
	}
}

// fail maps domain errors to status codes
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrDuplicateAddress):
		h.writeError(w, "Conflict", err.Error(), http.StatusConflict)
	case errors.As(err, &verr):
		h.writeError(w, "Invalid request", err.Error(), http.StatusBadRequest)
	case errors.Is(err, scan.ErrParse):
		h.writeError(w, "Malformed scan document", err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Msg(msg)
		h.writeError(w, msg, err.Error(), http.StatusInternalServerError)
	}
}

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "Request body too large", err.Error(), http.StatusRequestEntityTooLarge)
			return false
		}
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode JSON")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{
		Error:   error,
		Details: details,
	}, statusCode)
}
