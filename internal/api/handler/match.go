package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/plakoto/internal/api/middleware"
	"github.com/mcoot/plakoto/internal/api/request"
	"github.com/mcoot/plakoto/internal/api/response"
	"github.com/mcoot/plakoto/internal/model"
	"github.com/mcoot/plakoto/internal/services/bot"
	"github.com/mcoot/plakoto/internal/services/match"
)

// MatchHandler handles match endpoints
type MatchHandler struct {
	controller match.ControllerInterface
	botService *bot.Service
	logger     *slog.Logger
}

// NewMatchHandler creates a new match handler. botService may be nil, in
// which case adding a bot fails and no bot turns run.
func NewMatchHandler(controller match.ControllerInterface, botService *bot.Service, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		controller: controller,
		botService: botService,
		logger:     logger.With(slog.String("component", "match-handler")),
	}
}

func matchID(r *http.Request) model.MatchID {
	return model.MatchID(mux.Vars(r)["id"])
}

// Create handles POST /api/v1/matches
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	m, err := h.controller.CreateMatch(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.respondState(w, r, http.StatusCreated, m.ID, player.ID)
}

// ListOpen handles GET /api/v1/matches
func (h *MatchHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	matches, err := h.controller.ListOpen(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MatchListFromSummaries(matches))
}

// ListMine handles GET /api/v1/matches/mine
func (h *MatchHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	matches, err := h.controller.ListForPlayer(r.Context(), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MatchListFromSummaries(matches))
}

// Get handles GET /api/v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	h.respondState(w, r, http.StatusOK, matchID(r), player.ID)
}

// Join handles POST /api/v1/matches/{id}/join
func (h *MatchHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := matchID(r)

	if _, err := h.controller.JoinMatch(r.Context(), id, player.ID); err != nil {
		WriteError(w, err)
		return
	}

	h.respondAction(w, r, id, player.ID)
}

// AddBot handles POST /api/v1/matches/{id}/bot
func (h *MatchHandler) AddBot(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := matchID(r)

	var req request.AddBotRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, NewInvalidRequestError("invalid request body"))
			return
		}
	}

	if h.botService == nil {
		h.logger.Error("bot requested but no bot service configured")
		WriteError(w, NewInternalError())
		return
	}

	botPlayer, _, err := h.botService.AddBot(r.Context(), id, player.ID, req.Strategy)
	if err != nil {
		WriteError(w, err)
		return
	}

	actions := h.processBotActions(r.Context(), id)
	state, err := h.controller.GetState(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AddBotResponse{
		Bot: response.PlayerFromModel(botPlayer),
		ActionResponse: response.ActionResponse{
			BotActions: response.BotActionsFromModel(actions),
			State:      response.MatchStateFromState(state),
		},
	})
}

// Roll handles POST /api/v1/matches/{id}/roll
func (h *MatchHandler) Roll(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := matchID(r)

	res, err := h.controller.Roll(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	state, err := h.controller.GetState(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RollResponse{
		Die1:           res.Die1,
		Die2:           res.Die2,
		Doubles:        res.Doubles,
		MovesRemaining: res.MovesRemaining,
		LegalMoves:     response.MovesFromModel(state.LegalMoves),
		State:          response.MatchStateFromState(state),
	})
}

// LegalMoves handles GET /api/v1/matches/{id}/moves
func (h *MatchHandler) LegalMoves(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	moves, err := h.controller.LegalMoves(r.Context(), matchID(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LegalMovesResponse{Moves: response.MovesFromModel(moves)})
}

// Move handles POST /api/v1/matches/{id}/move
func (h *MatchHandler) Move(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := matchID(r)

	var req request.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.From == nil || req.To == nil {
		WriteError(w, NewInvalidRequestError("from and to are required"))
		return
	}

	res, err := h.controller.Move(r.Context(), id, player.ID, *req.From, *req.To)
	if err != nil {
		WriteError(w, err)
		return
	}

	var actions []bot.BotAction
	if !res.GameOver {
		actions = h.processBotActions(r.Context(), id)
	}

	state, err := h.controller.GetState(r.Context(), id, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MoveResponse{
		Move:       response.MoveFromModel(res.Move),
		Pinned:     res.Pinned,
		Unpinned:   res.Unpinned,
		BoreOff:    res.BoreOff,
		TurnEnded:  res.TurnEnded,
		GameOver:   res.GameOver,
		Winner:     string(res.Winner),
		BotActions: response.BotActionsFromModel(actions),
		State:      response.MatchStateFromState(state),
	})
}

// Pass handles POST /api/v1/matches/{id}/pass
func (h *MatchHandler) Pass(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	id := matchID(r)

	if _, err := h.controller.Pass(r.Context(), id, player.ID); err != nil {
		WriteError(w, err)
		return
	}

	h.respondAction(w, r, id, player.ID)
}

// respondAction runs any bot turns the action handed over and writes the
// resulting state
func (h *MatchHandler) respondAction(w http.ResponseWriter, r *http.Request, id model.MatchID, viewer model.PlayerID) {
	actions := h.processBotActions(r.Context(), id)

	state, err := h.controller.GetState(r.Context(), id, viewer)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ActionResponse{
		BotActions: response.BotActionsFromModel(actions),
		State:      response.MatchStateFromState(state),
	})
}

func (h *MatchHandler) respondState(w http.ResponseWriter, r *http.Request, status int, id model.MatchID, viewer model.PlayerID) {
	state, err := h.controller.GetState(r.Context(), id, viewer)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, status, response.MatchStateFromState(state))
}

// processBotActions plays any pending bot turns. The caller's own action
// has already been committed, so a bot failure is logged rather than
// returned.
func (h *MatchHandler) processBotActions(ctx context.Context, id model.MatchID) []bot.BotAction {
	if h.botService == nil {
		return nil
	}

	actions, err := h.botService.ProcessBotActions(ctx, id)
	if err != nil {
		h.logger.Warn("bot actions failed",
			slog.String("match_id", string(id)),
			slog.String("error", err.Error()),
		)
	}
	return actions
}
