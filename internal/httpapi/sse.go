package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debated/internal/debate"
	"github.com/fyrsmithlabs/debated/internal/orchestrator"
)

// handleStream drives the debate loop for one client, relaying loop events
// as server-sent events. The response stays open until the debate ends,
// the loop aborts, or the client disconnects (which the loop treats as a
// stop request).
func (s *Server) handleStream(c echo.Context) error {
	id := c.Param("id")

	if _, err := s.store.FindDebate(c.Request().Context(), id); err != nil {
		return storeError(err)
	}
	if s.orch.IsActive(id) {
		return echo.NewHTTPError(http.StatusConflict, "debate is already streaming")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	// One `data: {json}` record per event, flushed immediately so tokens
	// reach the client as they are generated.
	sink := func(ev debate.Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("marshal stream event", zap.Error(err))
			return
		}
		if _, err := fmt.Fprintf(res, "data: %s\n\n", payload); err != nil {
			return
		}
		res.Flush()
	}

	err := s.orch.StartDebate(c.Request().Context(), id, sink)
	switch {
	case err == nil:
	case errors.Is(err, orchestrator.ErrAlreadyActive):
		// Lost a start race after the pre-check; the sink already carried
		// the error event to this client.
	default:
		s.logger.Error("debate stream aborted", zap.String("debate_id", id), zap.Error(err))
	}
	return nil
}
