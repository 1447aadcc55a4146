package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"focus-planner/internal/model"
)

// Reminders remembers which start reminders were already delivered. Task
// events from the services re-arm or drop entries; the cron tick claims them.
type Reminders struct {
	mu        sync.Mutex
	sent      map[string]time.Time // occurrence id -> start time it was sent for
	cancelled map[string]bool
	log       logrus.FieldLogger
}

func NewReminders(log logrus.FieldLogger) *Reminders {
	return &Reminders{
		sent:      make(map[string]time.Time),
		cancelled: make(map[string]bool),
		log:       log,
	}
}

// TaskScheduled re-arms the reminder, e.g. after the start time was edited.
func (r *Reminders) TaskScheduled(_ context.Context, user model.User, task model.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sent, task.ID)
	delete(r.cancelled, task.ID)
	r.log.WithFields(logrus.Fields{"user": user.ID, "task": task.ID, "start": task.StartTime}).Debug("reminder armed")
}

// TaskRemoved drops any pending reminder for the occurrence.
func (r *Reminders) TaskRemoved(_ context.Context, user model.User, taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sent, taskID)
	r.cancelled[taskID] = true
	r.log.WithFields(logrus.Fields{"user": user.ID, "task": taskID}).Debug("reminder dropped")
}

// claim reports whether a reminder for occ should go out now and records it.
func (r *Reminders) claim(occ model.Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled[occ.ID] {
		return false
	}
	if at, ok := r.sent[occ.ID]; ok && at.Equal(occ.StartTime) {
		return false
	}
	r.sent[occ.ID] = occ.StartTime
	return true
}

// claimNudge is claim for a break suggestion pushed to one user.
func (r *Reminders) claimNudge(userID uint, key string, start time.Time) bool {
	return r.claim(model.Task{ID: fmt.Sprintf("break/%d/%s", userID, key), StartTime: start})
}

// prune forgets reminders for occurrences that started before cutoff.
func (r *Reminders) prune(cutoff time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, at := range r.sent {
		if at.Before(cutoff) {
			delete(r.sent, id)
			delete(r.cancelled, id)
		}
	}
}
