package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/x1-arena/services"
)

type MatchHandler struct {
	tournamentService services.TournamentService
}

func NewMatchHandler(tournamentService services.TournamentService) *MatchHandler {
	return &MatchHandler{tournamentService: tournamentService}
}

func (h *MatchHandler) ReportScore(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	var input struct {
		Score1 *int `json:"score1"`
		Score2 *int `json:"score2"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Score1 == nil || input.Score2 == nil {
		badRequestResponse(w, r, errors.New("score1 and score2 are required"))
		return
	}

	match, err := h.tournamentService.ReportScore(r.Context(), matchID, services.ScoreInput{
		Score1: *input.Score1,
		Score2: *input.Score2,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	match, err := h.tournamentService.InvalidateMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
