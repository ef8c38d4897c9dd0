package handlers

import (
	"net/http"

	"github.com/Dosada05/debate-draw/services"
)

// PublicDrawHandler отдаёт только выпущенные жеребьёвки; авторизация не нужна.
type PublicDrawHandler struct {
	drawService services.DrawService
	sideService services.SideAllocationService
}

func NewPublicDrawHandler(ds services.DrawService, ss services.SideAllocationService) *PublicDrawHandler {
	return &PublicDrawHandler{
		drawService: ds,
		sideService: ss,
	}
}

// GetRoundDraw обрабатывает GET /public/rounds/{roundID}/draw
func (h *PublicDrawHandler) GetRoundDraw(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draw, err := h.drawService.GetPublicDraw(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"draw": draw}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTournamentDraws обрабатывает GET /public/tournaments/{tournamentID}/draws
func (h *PublicDrawHandler) ListTournamentDraws(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draws, err := h.drawService.ListReleasedDraws(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"draws": draws}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetSideAllocations обрабатывает GET /public/tournaments/{tournamentID}/side-allocations
// и его админский аналог.
func (h *PublicDrawHandler) GetSideAllocations(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	grid, err := h.sideService.GetSideAllocations(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"side_allocations": grid}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
