package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/semmidev/keeper/internal/domain"
	"github.com/semmidev/keeper/internal/infrastructure/logger"
)

const (
	maxItemBody   = 16 * 1024
	healthTimeout = 2 * time.Second
)

type ItemHandler struct {
	logger *logger.Logger
	items  domain.ItemRepository
}

func NewItemHandler(log *logger.Logger, items domain.ItemRepository) *ItemHandler {
	return &ItemHandler{logger: log, items: items}
}

type createItemRequest struct {
	Name string `json:"name"`
}

type createItemResponse struct {
	InsertedID int64 `json:"insertedId"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())

	items, err := h.items.List(r.Context())
	if err != nil {
		log.Errorf("GET /api/items: %v", err)
		writeError(w, log, "Failed to list items", err)
		return
	}

	writeJSON(w, log, http.StatusOK, items)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())

	var req createItemRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxItemBody)).Decode(&req); err != nil {
		writeError(w, log, "Invalid item", fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidArgument, err))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, log, "Invalid item", fmt.Errorf("%w: name is required", domain.ErrInvalidArgument))
		return
	}
	if utf8.RuneCountInString(name) > domain.MaxItemNameLength {
		writeError(w, log, "Invalid item",
			fmt.Errorf("%w: name must be at most %d characters", domain.ErrInvalidArgument, domain.MaxItemNameLength))
		return
	}

	id, err := h.items.Create(r.Context(), name)
	if err != nil {
		log.Errorf("POST /api/item: %v", err)
		writeError(w, log, "Failed to insert item", err)
		return
	}

	writeJSON(w, log, http.StatusCreated, createItemResponse{InsertedID: id})
}

func (h *ItemHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())

	if err := h.items.DeleteAll(r.Context()); err != nil {
		log.Errorf("POST /api/delete-all: %v", err)
		writeError(w, log, "Failed to delete items", err)
		return
	}

	log.Warnf("All items deleted")
	writeJSON(w, log, http.StatusOK, okResponse{OK: true})
}

func (h *ItemHandler) Health(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.items.Ping(ctx); err != nil {
		writeJSON(w, log, http.StatusServiceUnavailable, healthResponse{Status: "error", Message: err.Error()})
		return
	}

	writeJSON(w, log, http.StatusOK, healthResponse{Status: "ok"})
}
