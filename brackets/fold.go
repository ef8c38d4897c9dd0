package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/debate-draw/models"
)

// FoldGenerator сводит первую команду с последней, вторую с предпоследней и т.д.
// Порядок команд задаёт вызывающий (обычно по reference).
type FoldGenerator struct {
}

func NewFoldGenerator() PairingGenerator {
	return &FoldGenerator{}
}

func (g *FoldGenerator) GetName() string {
	return "Fold"
}

func (g *FoldGenerator) Generate(ctx context.Context, params GenerateDrawParams) ([]*DrawPairing, error) {
	teams := params.Teams
	n := len(teams)

	if n < 2 {
		return nil, &DrawError{Message: fmt.Sprintf("There are only %d teams available for this round; at least 2 are needed to create a draw.", n)}
	}
	if n%2 != 0 {
		return nil, &DrawError{Message: fmt.Sprintf("There is an odd number of teams (%d) available for this round. Add a swing team or remove a team before creating the draw.", n)}
	}

	pairings := make([]*DrawPairing, 0, n/2)
	for i := 0; i < n/2; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		top, bottom := teams[i], teams[n-1-i]
		aff, neg, err := assignSides(top, bottom, params.PreAllocated)
		if err != nil {
			return nil, err
		}

		pairings = append(pairings, &DrawPairing{
			RoomRank:  i + 1,
			AffTeamID: aff.ID,
			NegTeamID: neg.ID,
		})
	}

	return pairings, nil
}

// assignSides учитывает заранее назначенные стороны; без них верхняя команда идёт за AFF.
func assignSides(top, bottom *models.Team, preAllocated map[int]models.Position) (aff, neg *models.Team, err error) {
	topSide, topFixed := preAllocated[top.ID]
	bottomSide, bottomFixed := preAllocated[bottom.ID]

	switch {
	case topFixed && bottomFixed && topSide == bottomSide:
		return nil, nil, &DrawError{Message: fmt.Sprintf(
			"Teams %s and %s are both pre-allocated to the %s side and cannot debate each other.",
			top.Reference, bottom.Reference, sideName(topSide),
		)}
	case topFixed && topSide == models.PositionNegative:
		return bottom, top, nil
	case bottomFixed && bottomSide == models.PositionAffirmative:
		return bottom, top, nil
	default:
		return top, bottom, nil
	}
}

func sideName(p models.Position) string {
	if p == models.PositionNegative {
		return "negative"
	}
	return "affirmative"
}
