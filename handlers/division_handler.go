package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/debate-draw/middleware"
	"github.com/Dosada05/debate-draw/services"
)

type DivisionHandler struct {
	divisionService services.DivisionService
}

func NewDivisionHandler(ds services.DivisionService) *DivisionHandler {
	return &DivisionHandler{divisionService: ds}
}

// SetTimeSlot обрабатывает PUT /divisions/{divisionID}/time-slot
func (h *DivisionHandler) SetTimeSlot(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		TimeSlot string `json:"time_slot"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	division, err := h.divisionService.SetDivisionTimeSlot(r.Context(), middleware.ActorFromContext(r.Context()), divisionID, input.TimeSlot)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"division": division}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetVenueGroup обрабатывает PUT /divisions/{divisionID}/venue-group
func (h *DivisionHandler) SetVenueGroup(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		VenueGroupID *int `json:"venue_group_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	division, err := h.divisionService.SetDivisionVenueGroup(r.Context(), divisionID, input.VenueGroupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"division": division}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetTeamDivision обрабатывает PUT /teams/{teamID}/division
func (h *DivisionHandler) SetTeamDivision(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		DivisionID *int `json:"division_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.divisionService.SetTeamDivision(r.Context(), teamID, input.DivisionID)
	if err != nil {
		// команда из пути запроса, поэтому 404, а не ошибка данных
		if errors.Is(err, services.ErrTeamNotFound) {
			notFoundResponse(w, r, "")
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
