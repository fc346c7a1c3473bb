package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/NemoKam/VSrapInformer/internal/application/catalog"
)

// CatalogHandler exposes the scraped catalog read endpoints.
type CatalogHandler struct {
	svc catalog.Service
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler { return &CatalogHandler{svc: svc} }

func (h *CatalogHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.svc.ListCollections(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collections)
}

// ListProducts returns products, optionally filtered by ?collection_id= and a
// case-insensitive ?q= title substring.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var collectionID *int64
	if raw := r.URL.Query().Get("collection_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "collection_id must be an integer")
			return
		}
		collectionID = &id
	}

	products, err := h.svc.ListProducts(r.Context(), collectionID, r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetCombination(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	c, err := h.svc.GetCombination(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
