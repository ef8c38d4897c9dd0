package services

import (
	"fmt"

	"github.com/Dosada05/debate-draw/models"
)

type DrawCommand string

const (
	CommandCreate     DrawCommand = "create"
	CommandConfirm    DrawCommand = "confirm"
	CommandRelease    DrawCommand = "release"
	CommandUnrelease  DrawCommand = "unrelease"
	CommandRegenerate DrawCommand = "regenerate"
)

type drawTransition struct {
	// from == nil означает "из любого статуса"
	from   []models.DrawStatus
	to     models.DrawStatus
	action models.ActionType
}

var drawTransitions = map[DrawCommand]drawTransition{
	CommandCreate:     {from: []models.DrawStatus{models.DrawStatusNone}, to: models.DrawStatusDraft, action: models.ActionDrawCreate},
	CommandConfirm:    {from: []models.DrawStatus{models.DrawStatusDraft}, to: models.DrawStatusConfirmed, action: models.ActionDrawConfirm},
	CommandRelease:    {from: []models.DrawStatus{models.DrawStatusConfirmed}, to: models.DrawStatusReleased, action: models.ActionDrawRelease},
	CommandUnrelease:  {from: []models.DrawStatus{models.DrawStatusReleased}, to: models.DrawStatusConfirmed, action: models.ActionDrawUnrelease},
	CommandRegenerate: {from: nil, to: models.DrawStatusNone, action: models.ActionDrawRegenerate},
}

// NextDrawStatus возвращает статус после команды или ошибку, если команда недопустима.
func NextDrawStatus(cmd DrawCommand, current models.DrawStatus) (models.DrawStatus, error) {
	tr, ok := drawTransitions[cmd]
	if !ok {
		return current, fmt.Errorf("%w: unknown command %q", ErrInvalidDrawTransition, cmd)
	}
	if !current.IsValid() {
		return current, fmt.Errorf("%w: unknown current status %q", ErrInvalidDrawTransition, current)
	}
	if tr.from == nil {
		return tr.to, nil
	}
	for _, allowed := range tr.from {
		if current == allowed {
			return tr.to, nil
		}
	}
	if cmd == CommandCreate {
		return current, fmt.Errorf("%w: draw status is %s", ErrDrawAlreadyExists, current)
	}
	return current, fmt.Errorf("%w: cannot %s draw in status %s", ErrInvalidDrawTransition, cmd, current)
}

func actionForCommand(cmd DrawCommand) models.ActionType {
	return drawTransitions[cmd].action
}
