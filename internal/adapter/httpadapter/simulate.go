package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
)

const (
	maxBodyBytes   = 1 << 20
	publishTimeout = 5 * time.Second

	msgBodyTooLarge = "Request body is too large."
)

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	design, msg := decodeDesign(w, r)
	if msg != "" {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Message: msg})
		return
	}

	result := s.sim.Run(r.Context(), design)
	s.publish(r.Context(), result)

	sharedobs.WriteJSON(w, http.StatusOK, result)
}

// publish forwards the result without failing the request. It detaches from
// the request context so a disconnecting client does not drop the message.
func (s *Server) publish(ctx context.Context, result domain.SimulationResult) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, result); err != nil {
		s.logger.Warn("publish simulation result failed", "id", result.ID, "error", err)
	}
}

// decodeDesign parses and validates the request body. A non-empty message
// means the request is rejected with 400.
func decodeDesign(w http.ResponseWriter, r *http.Request) (domain.BuildingDesign, string) {
	var in domain.DesignInput
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.BuildingDesign{}, msgBodyTooLarge
		}
		return domain.BuildingDesign{}, domain.DecodeError(err).Message
	}

	design, err := in.Validate()
	if err != nil {
		return domain.BuildingDesign{}, err.Error()
	}
	return design, ""
}
