// Package notify decides which task reminders may go out on a check run.
package notify

import (
	"fmt"
	"sort"
	"time"

	"taskmate/internal/model"
)

// Candidate is a reminder that qualified for sending but has not passed
// the frequency governor yet.
type Candidate struct {
	TaskID   uint
	UserID   uint
	Title    string
	Deadline time.Time
	Message  string
}

// Eligible selects open tasks whose deadline falls inside [now, now+leadTime]
// (both ends inclusive) and which have no undismissed notification on file.
// Results are ordered by ascending deadline. The function only reads its
// inputs; writing notifications is the caller's job.
func Eligible(tasks []model.Task, history []model.Notification, now time.Time, leadTime time.Duration) []Candidate {
	notified := make(map[uint]bool)
	for _, n := range history {
		if n.TaskID != nil && !n.Dismissed {
			notified[*n.TaskID] = true
		}
	}

	windowEnd := now.Add(leadTime)

	var candidates []Candidate
	for _, task := range tasks {
		if task.Completed || task.Deadline == nil {
			continue
		}
		if task.Deadline.Before(now) || task.Deadline.After(windowEnd) {
			continue
		}
		if notified[task.ID] {
			continue
		}
		candidates = append(candidates, Candidate{
			TaskID:   task.ID,
			UserID:   task.UserID,
			Title:    task.Title,
			Deadline: *task.Deadline,
			Message:  reminderMessage(task.Title, *task.Deadline),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Deadline.Before(candidates[j].Deadline)
	})

	return candidates
}

func reminderMessage(title string, due time.Time) string {
	return fmt.Sprintf("Hey! You mentioned needing to %s by %s. Need help? (Reply HELP or SNOOZE 1h)",
		title, due.Format("Jan 2, 3:04 PM"))
}
