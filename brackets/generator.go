package brackets

import (
	"context"

	"github.com/Dosada05/debate-draw/models"
)

type GenerateDrawParams struct {
	Round *models.Round
	Teams []*models.Team
	// PreAllocated - заранее назначенные стороны по team id.
	PreAllocated map[int]models.Position
}

// DrawPairing - одна пара будущих дебатов, ещё не сохранённая в БД.
type DrawPairing struct {
	RoomRank  int
	Bracket   float64
	AffTeamID int
	NegTeamID int
}

// PairingGenerator строит первоначальную сетку пар для раунда.
// Если построить сетку нельзя, возвращает *DrawError.
type PairingGenerator interface {
	Generate(ctx context.Context, params GenerateDrawParams) ([]*DrawPairing, error)

	GetName() string
}

// DrawError - невыполнимые условия жеребьёвки. Message показывается пользователю как есть.
type DrawError struct {
	Message string
}

func (e *DrawError) Error() string {
	return e.Message
}
