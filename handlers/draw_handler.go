package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Dosada05/debate-draw/middleware"
	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/services"
)

type DrawHandler struct {
	drawService     services.DrawService
	matchupService  services.MatchupService
	scheduleService services.ScheduleService
}

func NewDrawHandler(ds services.DrawService, ms services.MatchupService, ss services.ScheduleService) *DrawHandler {
	return &DrawHandler{
		drawService:     ds,
		matchupService:  ms,
		scheduleService: ss,
	}
}

// GetDraw обрабатывает GET /rounds/{roundID}/draw
func (h *DrawHandler) GetDraw(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draw, err := h.drawService.GetDraw(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"draw": draw}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateDraw обрабатывает POST /rounds/{roundID}/draw/create
func (h *DrawHandler) CreateDraw(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.drawService.CreateDraw(r.Context(), middleware.ActorFromContext(r.Context()), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"draw": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type roundCommand func(ctx context.Context, actorID *int, roundID int) (*models.Round, error)

func (h *DrawHandler) transition(cmd roundCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roundID, err := getIDFromURL(r, "roundID")
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}

		round, err := cmd(r.Context(), middleware.ActorFromContext(r.Context()), roundID)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}

		if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
	}
}

// ConfirmDraw обрабатывает POST /rounds/{roundID}/draw/confirm
func (h *DrawHandler) ConfirmDraw(w http.ResponseWriter, r *http.Request) {
	h.transition(h.drawService.ConfirmDraw)(w, r)
}

// ReleaseDraw обрабатывает POST /rounds/{roundID}/draw/release
func (h *DrawHandler) ReleaseDraw(w http.ResponseWriter, r *http.Request) {
	h.transition(h.drawService.ReleaseDraw)(w, r)
}

// UnreleaseDraw обрабатывает POST /rounds/{roundID}/draw/unrelease
func (h *DrawHandler) UnreleaseDraw(w http.ResponseWriter, r *http.Request) {
	h.transition(h.drawService.UnreleaseDraw)(w, r)
}

// RegenerateDraw обрабатывает POST /rounds/{roundID}/draw/regenerate
func (h *DrawHandler) RegenerateDraw(w http.ResponseWriter, r *http.Request) {
	h.transition(h.drawService.RegenerateDraw)(w, r)
}

// SetStartTime обрабатывает POST /rounds/{roundID}/start-time
func (h *DrawHandler) SetStartTime(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		StartTime string `json:"start_time"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.drawService.SetRoundStartTime(r.Context(), middleware.ActorFromContext(r.Context()), roundID, input.StartTime)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatchups обрабатывает GET /rounds/{roundID}/matchups
func (h *DrawHandler) GetMatchups(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	editor, err := h.drawService.GetMatchupEditor(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"editor": editor}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SaveMatchups обрабатывает POST /rounds/{roundID}/matchups
func (h *DrawHandler) SaveMatchups(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := readForm(w, r); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	submission, err := ParseMatchupForm(r.PostForm)
	if err != nil {
		var formErr *FormError
		if errors.As(err, &formErr) {
			failedValidationResponse(w, r, map[string]string{formErr.Field: formErr.Message})
			return
		}
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchupService.SaveMatchups(r.Context(), middleware.ActorFromContext(r.Context()), roundID, submission); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApplySchedule обрабатывает POST /rounds/{roundID}/schedule
func (h *DrawHandler) ApplySchedule(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := readForm(w, r); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.scheduleService.ApplySchedule(r.Context(), middleware.ActorFromContext(r.Context()), roundID, ParseScheduleForm(r.PostForm))
	var scheduleErr *services.ScheduleError
	switch {
	case errors.As(err, &scheduleErr):
		// удачные даты уже сохранены, клиенту нужен и результат, и список ошибок
		if err := writeJSON(w, http.StatusUnprocessableEntity, jsonResponse{"schedule": result, "error": scheduleErr.Error()}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	case err != nil:
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"schedule": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
