package indigo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// taskTransitions maps each action to the states it may be applied from
// and the state it produces.
var taskTransitions = map[TaskAction]struct {
	from map[TaskState]bool
	to   TaskState
}{
	TaskActionSubmit:   {from: states(TaskStateOpen), to: TaskStatePendingReview},
	TaskActionUnsubmit: {from: states(TaskStatePendingReview), to: TaskStateOpen},
	TaskActionClose:    {from: states(TaskStatePendingReview), to: TaskStateDone},
	TaskActionReopen:   {from: states(TaskStateDone, TaskStateCancelled), to: TaskStateOpen},
	TaskActionCancel:   {from: states(TaskStateOpen, TaskStatePendingReview, TaskStateBlocked), to: TaskStateCancelled},
	TaskActionBlock:    {from: states(TaskStateOpen, TaskStatePendingReview), to: TaskStateBlocked},
	TaskActionUnblock:  {from: states(TaskStateBlocked), to: TaskStateOpen},
}

func states(list ...TaskState) map[TaskState]bool {
	set := make(map[TaskState]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}

// TransitionTask applies a workflow action to a task, validating it
// against the task's current state.
func (s *service) TransitionTask(ctx context.Context, id uuid.UUID, action TaskAction) (*Task, error) {
	task, err := s.repository.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	transition, ok := taskTransitions[action]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidTaskTransition, action)
	}
	if !transition.from[task.State] {
		return nil, fmt.Errorf("%w: cannot %s a task in state %s", ErrInvalidTaskTransition, action, task.State)
	}

	now := time.Now().UTC()
	task.State = transition.to
	task.UpdatedAt = now
	if task.State.Closed() {
		task.ClosedAt = &now
	} else {
		task.ClosedAt = nil
	}

	if err := s.repository.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	s.fireEvent(ctx, func(sink EventSink) error { return sink.TaskChanged(ctx, task) })
	return task, nil
}
