package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/semmidev/keeper/internal/domain"
	"github.com/semmidev/keeper/internal/infrastructure/logger"
	"github.com/semmidev/keeper/internal/usecase"
)

const maxConfigBody = 4 * 1024

type ScheduleService interface {
	Get() domain.ScheduleState
	Configure(update domain.ScheduleUpdate) (domain.ScheduleState, error)
}

type ClockService interface {
	CurrentTime() usecase.CurrentTime
}

type ScheduleHandler struct {
	logger   *logger.Logger
	schedule ScheduleService
	clock    ClockService
}

func NewScheduleHandler(log *logger.Logger, schedule ScheduleService, clock ClockService) *ScheduleHandler {
	return &ScheduleHandler{logger: log, schedule: schedule, clock: clock}
}

type scheduleResponse struct {
	Enabled          bool `json:"enabled"`
	TriggerSecond    int  `json:"triggerSecond"`
	LastBackupMinute int  `json:"lastBackupMinute"`
}

type configureResponse struct {
	OK     bool             `json:"ok"`
	Config scheduleResponse `json:"config"`
}

func toScheduleResponse(state domain.ScheduleState) scheduleResponse {
	return scheduleResponse{
		Enabled:          state.Enabled,
		TriggerSecond:    state.TriggerSecond,
		LastBackupMinute: state.LastFiredMinute,
	}
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())
	writeJSON(w, log, http.StatusOK, toScheduleResponse(h.schedule.Get()))
}

func (h *ScheduleHandler) Configure(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())

	update, err := decodeScheduleUpdate(io.LimitReader(r.Body, maxConfigBody))
	if err == nil {
		var state domain.ScheduleState
		if state, err = h.schedule.Configure(update); err == nil {
			log.Infof("Auto backup configured: enabled=%t triggerSecond=%d", state.Enabled, state.TriggerSecond)
			writeJSON(w, log, http.StatusOK, configureResponse{OK: true, Config: toScheduleResponse(state)})
			return
		}
	}

	log.Warnf("POST /api/configure-auto-backup: %v", err)
	writeError(w, log, "Invalid auto backup configuration", err)
}

func (h *ScheduleHandler) CurrentTime(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(h.logger, r.Context())
	writeJSON(w, log, http.StatusOK, h.clock.CurrentTime())
}

// decodeScheduleUpdate reads {enabled?, triggerSecond?}. A field of the wrong
// JSON type is treated as absent; a fractional second is rejected.
func decodeScheduleUpdate(body io.Reader) (domain.ScheduleUpdate, error) {
	var update domain.ScheduleUpdate
	var raw map[string]json.RawMessage

	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return update, nil
		}
		return update, fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidArgument, err)
	}

	if value, ok := raw["enabled"]; ok && !isNull(value) {
		var enabled bool
		if json.Unmarshal(value, &enabled) == nil {
			update.Enabled = &enabled
		}
	}

	if value, ok := raw["triggerSecond"]; ok && !isNull(value) {
		var second float64
		if json.Unmarshal(value, &second) == nil {
			if second != math.Trunc(second) || math.Abs(second) > math.MaxInt32 {
				return update, fmt.Errorf("%w: triggerSecond must be an integer between 0 and 59, got %s",
					domain.ErrInvalidArgument, bytes.TrimSpace(value))
			}
			s := int(second)
			update.TriggerSecond = &s
		}
	}

	return update, nil
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
