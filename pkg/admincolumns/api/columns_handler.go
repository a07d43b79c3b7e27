package api

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/admin-columns/pkg/admincolumns"
)

const (
	// TokenHeader carries the anti-forgery token on requests that have no body
	TokenHeader = "X-Csrf-Token"
	// TokenField is the query or body field that carries the anti-forgery token
	TokenField = "nonce"

	SavedMessage      = "Columns Updated Successfully"
	ForbiddenMessage  = "You do not have sufficient permissions to access this page."
	UnauthorizedSaver = "Unauthorized user"
)

var checkboxTemplate = template.Must(template.New("columns").Parse(
	`{{range .}}<label><input type="checkbox" name="{{.Key}}" value="1"{{if .Checked}} checked="checked"{{end}}> {{.Label}}</label><br>
{{end}}`))

// ColumnsHandler serves the column settings screen and the listing filter
type ColumnsHandler struct {
	service admincolumns.Service
	columns admincolumns.ColumnProvider
}

func NewColumnsHandler(service admincolumns.Service, columns admincolumns.ColumnProvider) *ColumnsHandler {
	return &ColumnsHandler{
		service: service,
		columns: columns,
	}
}

// Routes returns the router for column endpoints
func (h *ColumnsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/content-types", h.ListContentTypes)
	r.Get("/token", h.IssueToken)
	r.Get("/columns/{contentType}", h.GetColumns)
	r.Post("/columns/{contentType}", h.SaveColumns)
	r.Mount("/listing", h.ListingRoutes())
	return r
}

// ListingRoutes returns the router for the listing renderer. It needs no
// administrator capability and can be mounted behind service credentials.
func (h *ColumnsHandler) ListingRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{contentType}/columns", h.ListingColumns)
	r.Post("/{contentType}/filter", h.FilterColumns)
	return r
}

// ContentTypeResponse is one entry of the content type dropdown
type ContentTypeResponse struct {
	Name  admincolumns.ContentType `json:"name"`
	Label string                   `json:"label"`
}

// TokenResponse carries a freshly issued anti-forgery token
type TokenResponse struct {
	Token string `json:"token"`
}

// SaveColumnsRequest is the body of a save. Column values are hidden flags:
// "1" (or 1, true) hides the column.
type SaveColumnsRequest struct {
	Nonce   string         `json:"nonce"`
	Columns map[string]any `json:"columns"`
}

// ListContentTypes returns the content types whose columns can be managed
func (h *ColumnsHandler) ListContentTypes(w http.ResponseWriter, r *http.Request) {
	infos, err := h.service.ContentTypes(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		slog.Error("Failed to list content types", "error", err)
		writeError(w, err, ForbiddenMessage)
		return
	}

	resp := make([]ContentTypeResponse, 0, len(infos))
	for _, info := range infos {
		resp = append(resp, ContentTypeResponse{Name: info.Name, Label: info.Label})
	}
	render.JSON(w, r, resp)
}

// IssueToken returns an anti-forgery token bound to the caller's session
func (h *ColumnsHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	tok, err := h.service.IssueToken(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		slog.Error("Failed to issue token", "error", err)
		writeError(w, err, ForbiddenMessage)
		return
	}
	render.JSON(w, r, TokenResponse{Token: tok})
}

// GetColumns returns the checkbox list for a content type, as JSON or as an HTML fragment
func (h *ColumnsHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	contentType := chi.URLParam(r, "contentType")

	display, err := h.service.ColumnsForDisplay(r.Context(), admincolumns.DisplayRequest{
		Caller:      CallerFromContext(r.Context()),
		ContentType: contentType,
		Token:       tokenFromRequest(r, ""),
	})
	if err != nil {
		slog.Error("Failed to load columns", "content_type", contentType, "error", err)
		writeError(w, err, ForbiddenMessage)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := checkboxTemplate.Execute(w, display); err != nil {
			slog.Error("Failed to render columns", "content_type", contentType, "error", err)
		}
		return
	}

	render.JSON(w, r, display)
}

// SaveColumns replaces the stored preferences for a content type
func (h *ColumnsHandler) SaveColumns(w http.ResponseWriter, r *http.Request) {
	contentType := chi.URLParam(r, "contentType")
	caller := CallerFromContext(r.Context())
	if !caller.IsAdmin {
		slog.Warn("Rejected column save", "content_type", contentType, "session", caller.SessionID)
		http.Error(w, UnauthorizedSaver, http.StatusForbidden)
		return
	}

	var req SaveColumnsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.Save(r.Context(), admincolumns.SaveRequest{
		Caller:      caller,
		ContentType: contentType,
		Token:       tokenFromRequest(r, req.Nonce),
		Columns:     req.Columns,
	})
	if err != nil {
		slog.Error("Failed to save columns", "content_type", contentType, "error", err)
		writeError(w, err, UnauthorizedSaver)
		return
	}

	slog.Info("Columns updated", "content_type", contentType, "entries", len(req.Columns))
	render.PlainText(w, r, SavedMessage)
}

// ListingColumns returns the host columns for a content type with hidden ones removed
func (h *ColumnsHandler) ListingColumns(w http.ResponseWriter, r *http.Request) {
	contentType := admincolumns.SanitizeContentType(chi.URLParam(r, "contentType"))

	columns, err := h.columns.Columns(r.Context(), contentType)
	if err != nil {
		if errors.Is(err, admincolumns.ErrContentTypeNotFound) {
			http.Error(w, "Content type not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get host columns", "content_type", contentType, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, h.apply(r, contentType, columns))
}

// FilterColumns applies the stored preferences to a column set supplied by the listing renderer
func (h *ColumnsHandler) FilterColumns(w http.ResponseWriter, r *http.Request) {
	contentType := admincolumns.SanitizeContentType(chi.URLParam(r, "contentType"))

	var columns []admincolumns.Column
	if err := render.DecodeJSON(r.Body, &columns); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	render.JSON(w, r, h.apply(r, contentType, columns))
}

// apply never fails the listing: on a store error every column is shown
func (h *ColumnsHandler) apply(r *http.Request, contentType admincolumns.ContentType, columns []admincolumns.Column) []admincolumns.Column {
	visible, err := h.service.Apply(r.Context(), contentType, columns)
	if err != nil {
		slog.Warn("Failed to apply column preferences", "content_type", contentType, "error", err)
	}
	if visible == nil {
		visible = []admincolumns.Column{}
	}
	return visible
}

// tokenFromRequest prefers the body value, then the header, then the query string
func tokenFromRequest(r *http.Request, body string) string {
	if body != "" {
		return body
	}
	if tok := r.Header.Get(TokenHeader); tok != "" {
		return tok
	}
	return r.URL.Query().Get(TokenField)
}

func writeError(w http.ResponseWriter, err error, forbidden string) {
	switch {
	case admincolumns.IsAuthorizationError(err):
		http.Error(w, forbidden, http.StatusForbidden)
	case admincolumns.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
