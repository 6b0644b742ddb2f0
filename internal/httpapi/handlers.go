package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debated/internal/debate"
	"github.com/fyrsmithlabs/debated/internal/store"
)

// ControlResponse is the response body for the control endpoints.
type ControlResponse struct {
	Success bool `json:"success"`
}

// DebateDetail is the response body for GET /api/v1/debates/:id.
type DebateDetail struct {
	Debate   *debate.Debate   `json:"debate"`
	Messages []debate.Message `json:"messages"`
}

// EditMessageRequest is the request body for PUT .../messages/:messageID.
type EditMessageRequest struct {
	Content string `json:"content"`
}

// RewindResponse is the response body for DELETE .../messages/after/:messageID.
type RewindResponse struct {
	Success      bool `json:"success"`
	DeletedCount int  `json:"deleted_count"`
}

// storeError maps store sentinel errors onto HTTP errors.
func storeError(err error) error {
	switch {
	case errors.Is(err, store.ErrDebateNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "debate not found")
	case errors.Is(err, store.ErrMessageNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "message not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "storage failure")
	}
}

// handleCreateDebate creates a debate from run parameters.
func (s *Server) handleCreateDebate(c echo.Context) error {
	var params debate.CreateParams
	if err := c.Bind(&params); err != nil {
		s.logger.Warn("invalid create request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	params.ApplyDefaults()
	if err := params.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	d, err := s.store.CreateDebate(c.Request().Context(), params)
	if err != nil {
		s.logger.Error("create debate", zap.Error(err))
		return storeError(err)
	}

	s.logger.Info("debate created",
		zap.String("debate_id", d.ID),
		zap.Int("time_limit_minutes", d.TimeLimitMinutes),
		zap.Bool("step_by_step", d.StepByStepMode),
	)
	return c.JSON(http.StatusCreated, d)
}

func (s *Server) handleListDebates(c echo.Context) error {
	debates, err := s.store.ListDebates(c.Request().Context())
	if err != nil {
		s.logger.Error("list debates", zap.Error(err))
		return storeError(err)
	}
	return c.JSON(http.StatusOK, debates)
}

func (s *Server) handleGetDebate(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	d, err := s.store.FindDebate(ctx, id)
	if err != nil {
		return storeError(err)
	}
	msgs, err := s.store.ListMessages(ctx, id)
	if err != nil {
		s.logger.Error("list messages", zap.String("debate_id", id), zap.Error(err))
		return storeError(err)
	}
	return c.JSON(http.StatusOK, DebateDetail{Debate: d, Messages: msgs})
}

// handleDeleteDebate removes a debate and its messages, stopping the run
// first when one is active.
func (s *Server) handleDeleteDebate(c echo.Context) error {
	id := c.Param("id")

	if s.orch.IsActive(id) {
		s.orch.Stop(id)
	}
	if err := s.store.DeleteDebate(c.Request().Context(), id); err != nil {
		return storeError(err)
	}

	s.logger.Info("debate deleted", zap.String("debate_id", id))
	return c.NoContent(http.StatusNoContent)
}

// handlePause suspends an active run and persists the paused status.
func (s *Server) handlePause(c echo.Context) error {
	id := c.Param("id")

	if !s.orch.Pause(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "debate is not active")
	}
	if err := s.store.UpdateStatus(c.Request().Context(), id, debate.StatusPaused); err != nil {
		s.logger.Error("persist pause", zap.String("debate_id", id), zap.Error(err))
		return storeError(err)
	}
	return c.JSON(http.StatusOK, ControlResponse{Success: true})
}

// handleResume clears a pause and persists the running status.
func (s *Server) handleResume(c echo.Context) error {
	id := c.Param("id")

	if !s.orch.Resume(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "debate is not paused")
	}
	if err := s.store.UpdateStatus(c.Request().Context(), id, debate.StatusRunning); err != nil {
		s.logger.Error("persist resume", zap.String("debate_id", id), zap.Error(err))
		return storeError(err)
	}
	return c.JSON(http.StatusOK, ControlResponse{Success: true})
}

// handleStop requests termination of an active run. The loop persists the
// terminal state itself.
func (s *Server) handleStop(c echo.Context) error {
	id := c.Param("id")

	if !s.orch.Stop(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "debate is not active")
	}
	return c.JSON(http.StatusOK, ControlResponse{Success: true})
}

// handleNextTurn releases a step-by-step hold and persists the running
// status.
func (s *Server) handleNextTurn(c echo.Context) error {
	id := c.Param("id")

	if !s.orch.TriggerNext(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "debate is not waiting for the next turn")
	}
	if err := s.store.UpdateStatus(c.Request().Context(), id, debate.StatusRunning); err != nil {
		s.logger.Error("persist next-turn", zap.String("debate_id", id), zap.Error(err))
		return storeError(err)
	}
	return c.JSON(http.StatusOK, ControlResponse{Success: true})
}

func (s *Server) handleListMessages(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if _, err := s.store.FindDebate(ctx, id); err != nil {
		return storeError(err)
	}
	msgs, err := s.store.ListMessages(ctx, id)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// findDebateMessage loads a message and verifies it belongs to the debate.
// A message reachable under the wrong debate id reads as not found.
func (s *Server) findDebateMessage(c echo.Context, debateID, messageID string) (*debate.Message, error) {
	msg, err := s.store.GetMessage(c.Request().Context(), messageID)
	if err != nil {
		return nil, storeError(err)
	}
	if msg.DebateID != debateID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "message not found")
	}
	return msg, nil
}

// handleEditMessage replaces a message's content, marking it edited.
func (s *Server) handleEditMessage(c echo.Context) error {
	debateID := c.Param("id")
	messageID := c.Param("messageID")

	var req EditMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content field is required")
	}

	if _, err := s.findDebateMessage(c, debateID, messageID); err != nil {
		return err
	}
	if err := s.store.ReplaceMessageContent(c.Request().Context(), messageID, req.Content); err != nil {
		return storeError(err)
	}

	msg, err := s.store.GetMessage(c.Request().Context(), messageID)
	if err != nil {
		return storeError(err)
	}

	s.logger.Info("message edited",
		zap.String("debate_id", debateID),
		zap.String("message_id", messageID),
	)
	return c.JSON(http.StatusOK, msg)
}

// handleRewind deletes every message strictly newer than the reference
// message and re-syncs the persisted turn counter. Rewinding a completed
// debate reopens it as paused so it can be driven again.
func (s *Server) handleRewind(c echo.Context) error {
	ctx := c.Request().Context()
	debateID := c.Param("id")
	messageID := c.Param("messageID")

	if _, err := s.findDebateMessage(c, debateID, messageID); err != nil {
		return err
	}

	deleted, err := s.store.DeleteMessagesAfter(ctx, debateID, messageID)
	if err != nil {
		return storeError(err)
	}

	remaining, err := s.store.ListMessages(ctx, debateID)
	if err != nil {
		return storeError(err)
	}
	if err := s.store.UpdateTurnCount(ctx, debateID, len(remaining)); err != nil {
		return storeError(err)
	}

	d, err := s.store.FindDebate(ctx, debateID)
	if err != nil {
		return storeError(err)
	}
	if d.Status == debate.StatusCompleted {
		if err := s.store.UpdateStatus(ctx, debateID, debate.StatusPaused); err != nil {
			return storeError(err)
		}
	}

	s.logger.Info("debate rewound",
		zap.String("debate_id", debateID),
		zap.String("message_id", messageID),
		zap.Int("deleted", deleted),
	)
	return c.JSON(http.StatusOK, RewindResponse{Success: true, DeletedCount: deleted})
}
