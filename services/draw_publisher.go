package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/debate-draw/brackets"
	"github.com/Dosada05/debate-draw/models"
	"github.com/Dosada05/debate-draw/storage"
)

// RoomBroadcaster реализуется *brackets.Hub.
type RoomBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// DrawPublisher делает выпущенную жеребьёвку видимой публично и снимает её с публикации.
type DrawPublisher interface {
	Publish(ctx context.Context, round *models.Round, debates []*models.Debate) error
	Withdraw(ctx context.Context, round *models.Round) error
}

type DrawSnapshot struct {
	RoundID      int               `json:"round_id"`
	TournamentID int               `json:"tournament_id"`
	RoundName    string            `json:"round_name"`
	StartsAt     *models.TimeOfDay `json:"starts_at,omitempty"`
	Debates      []*models.Debate  `json:"debates"`
	ReleasedAt   time.Time         `json:"released_at"`
}

type DrawReleasedPayload struct {
	RoundID     int    `json:"round_id"`
	RoundName   string `json:"round_name"`
	SnapshotURL string `json:"snapshot_url,omitempty"`
}

type drawPublisher struct {
	uploader storage.FileUploader
	hub      RoomBroadcaster
	logger   *slog.Logger
	now      func() time.Time
}

// NewDrawPublisher: uploader и hub могут быть nil, тогда соответствующий канал отключён.
func NewDrawPublisher(uploader storage.FileUploader, hub RoomBroadcaster, logger *slog.Logger) DrawPublisher {
	return &drawPublisher{
		uploader: uploader,
		hub:      hub,
		logger:   ensureLogger(logger),
		now:      time.Now,
	}
}

func DrawSnapshotKey(round *models.Round) string {
	return fmt.Sprintf("draws/tournament_%d/round_%d.json", round.TournamentID, round.ID)
}

func (p *drawPublisher) Publish(ctx context.Context, round *models.Round, debates []*models.Debate) error {
	payload := DrawReleasedPayload{RoundID: round.ID, RoundName: round.Name}

	if p.uploader != nil {
		snapshot := DrawSnapshot{
			RoundID:      round.ID,
			TournamentID: round.TournamentID,
			RoundName:    round.Name,
			StartsAt:     round.StartsAt,
			Debates:      debates,
			ReleasedAt:   p.now().UTC(),
		}
		body, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal draw snapshot for round %d: %w", round.ID, err)
		}
		result, err := p.uploader.Upload(ctx, DrawSnapshotKey(round), "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to upload draw snapshot for round %d: %w", round.ID, err)
		}
		payload.SnapshotURL = result.Location
	}

	if p.hub != nil {
		room := brackets.TournamentRoom(round.TournamentID)
		p.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
			Type:    brackets.EventDrawReleased,
			Payload: payload,
			RoomID:  room,
		})
	}

	p.logger.InfoContext(ctx, "draw published", slog.Int("round_id", round.ID), slog.String("snapshot_url", payload.SnapshotURL))
	return nil
}

func (p *drawPublisher) Withdraw(ctx context.Context, round *models.Round) error {
	if p.hub != nil {
		room := brackets.TournamentRoom(round.TournamentID)
		p.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
			Type:    brackets.EventDrawUnreleased,
			Payload: map[string]int{"round_id": round.ID},
			RoomID:  room,
		})
	}

	if p.uploader != nil {
		if err := p.uploader.Delete(ctx, DrawSnapshotKey(round)); err != nil {
			return fmt.Errorf("failed to delete draw snapshot for round %d: %w", round.ID, err)
		}
	}

	p.logger.InfoContext(ctx, "draw withdrawn", slog.Int("round_id", round.ID))
	return nil
}
