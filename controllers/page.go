package controllers

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"records-api/models"
)

//go:embed templates/items.gohtml
var templateFS embed.FS

var pageSizes = []int64{5, 10, 20, 50}

// ItemsPage renders the item manager. The first page is rendered on the
// server; later navigation happens in the browser against /items.
type ItemsPage struct {
	items  Records[models.Item]
	page   *template.Template
	logger *slog.Logger
}

func NewItemsPage(items Records[models.Item], logger *slog.Logger) (*ItemsPage, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/items.gohtml")
	if err != nil {
		return nil, err
	}
	return &ItemsPage{items: items, page: tmpl, logger: logger}, nil
}

type itemsView struct {
	Result    models.PageResult[models.Item]
	PageSizes []int64
	Error     string
	StateJSON template.JS
}

func (h *ItemsPage) Render(w http.ResponseWriter, r *http.Request) {
	p := models.ParsePagination(r.URL.Query())
	view := itemsView{PageSizes: pageSizes}
	status := http.StatusOK

	docs, total, err := h.items.Page(r.Context(), p.Skip(), p.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "load items page", slog.Any("error", err))
		view.Error = "Failed to load items"
		status = http.StatusInternalServerError
		docs, total = nil, 0
	}
	view.Result = models.NewPageResult(docs, p, total)

	state, err := json.Marshal(view.Result)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	view.StateJSON = template.JS(state)

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, view); err != nil {
		h.logger.ErrorContext(r.Context(), "render items page", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
