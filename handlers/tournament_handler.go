package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/x1-arena/services"
	"github.com/Dosada05/x1-arena/storage"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(tournamentService services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService}
}

func (h *TournamentHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.tournamentService.State(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, state, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	tables, err := h.tournamentService.Standings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": tables}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetStandingsChart(w http.ResponseWriter, r *http.Request) {
	state, err := h.tournamentService.State(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	png, err := storage.RenderStandingsChart(state.Competitors)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", storage.ContentTypePNG)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *TournamentHandler) Start(w http.ResponseWriter, r *http.Request) {
	state, err := h.tournamentService.Start(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, state, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	state, err := h.tournamentService.Reset(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, state, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GeneratePlayoffs(w http.ResponseWriter, r *http.Request) {
	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			badRequestResponse(w, r, fmt.Errorf("invalid force value %q", raw))
			return
		}
		force = parsed
	}

	state, err := h.tournamentService.GeneratePlayoffs(r.Context(), force)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, state, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
