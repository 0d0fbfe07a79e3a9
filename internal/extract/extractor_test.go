package extract

import (
	"errors"
	"testing"
	"time"

	"taskmate/internal/model"
)

// Monday, 09:00.
var monday = time.Date(2026, time.August, 24, 9, 0, 0, 0, time.UTC)

func TestExtractEmptyMessage(t *testing.T) {
	for _, message := range []string{"", "   ", "\n\t"} {
		if _, err := Extract(message, monday); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Extract(%q) error = %v, want ErrEmptyMessage", message, err)
		}
	}
}

func TestExtractNoMatch(t *testing.T) {
	candidates, err := Extract("good morning, how are you?", monday)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(candidates))
	}
}

func TestExtractModalWithDeadline(t *testing.T) {
	message := "I need to finish the report by Friday"
	candidates, err := Extract(message, monday)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// All three families fire on this phrasing and each emission is kept;
	// family order decides result order.
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3: %+v", len(candidates), candidates)
	}

	friday := time.Date(2026, time.August, 28, 23, 59, 59, 0, time.UTC)

	first := candidates[0]
	if first.Title != "finish the report" {
		t.Errorf("first title = %q, want %q", first.Title, "finish the report")
	}
	if first.Deadline == nil || !first.Deadline.Equal(friday) {
		t.Errorf("first deadline = %v, want %v", first.Deadline, friday)
	}
	if first.Priority != model.PriorityMedium {
		t.Errorf("priority = %q, want %q", first.Priority, model.PriorityMedium)
	}
	if want := `Extracted from: "I need to finish the report by Friday"`; first.Description != want {
		t.Errorf("description = %q, want %q", first.Description, want)
	}

	second := candidates[1]
	if second.Title != "I need to finish the report" {
		t.Errorf("second title = %q", second.Title)
	}
	if second.Deadline == nil || !second.Deadline.Equal(friday) {
		t.Errorf("second deadline = %v, want %v", second.Deadline, friday)
	}

	// The modal-only family has no deadline clause, so its capture swallows
	// the whole tail and carries no deadline.
	third := candidates[2]
	if third.Title != "finish the report by Friday" {
		t.Errorf("third title = %q", third.Title)
	}
	if third.Deadline != nil {
		t.Errorf("third deadline = %v, want nil", *third.Deadline)
	}
}

func TestExtractDueClauseWithoutModal(t *testing.T) {
	candidates, err := Extract("client presentation due Thursday", monday)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(candidates), candidates)
	}

	thursday := time.Date(2026, time.August, 27, 23, 59, 59, 0, time.UTC)
	if candidates[0].Title != "client presentation" {
		t.Errorf("title = %q, want %q", candidates[0].Title, "client presentation")
	}
	if candidates[0].Deadline == nil || !candidates[0].Deadline.Equal(thursday) {
		t.Errorf("deadline = %v, want %v", candidates[0].Deadline, thursday)
	}
}

func TestExtractModalWithoutDeadline(t *testing.T) {
	candidates, err := Extract("I should call the dentist", monday)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(candidates), candidates)
	}
	if candidates[0].Title != "call the dentist" {
		t.Errorf("title = %q, want %q", candidates[0].Title, "call the dentist")
	}
	if candidates[0].Deadline != nil {
		t.Errorf("deadline = %v, want nil", *candidates[0].Deadline)
	}
}

func TestExtractMultipleSentences(t *testing.T) {
	message := "I need to finish the report by Friday. I should call the dentist."
	candidates, err := Extract(message, monday)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// Each family matches exhaustively across sentence boundaries: the
	// deadline families fire on the first sentence, the modal family on
	// both.
	var titles []string
	for _, c := range candidates {
		titles = append(titles, c.Title)
	}
	want := []string{
		"finish the report",
		"I need to finish the report",
		"finish the report by Friday",
		"call the dentist",
	}
	if len(titles) != len(want) {
		t.Fatalf("titles = %q, want %q", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestExtractShortTitleDiscarded(t *testing.T) {
	candidates, err := Extract("I must go", monday)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0: %+v", len(candidates), candidates)
	}
}

func TestExtractUnresolvableDeadlineKeptWithoutTimestamp(t *testing.T) {
	candidates, err := Extract("need to submit the draft by whenever suits", monday)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(candidates) == 0 {
		t.Fatal("got no candidates")
	}
	if candidates[0].Title != "submit the draft" {
		t.Errorf("title = %q", candidates[0].Title)
	}
	if candidates[0].Deadline != nil {
		t.Errorf("deadline = %v, want nil for unresolvable text", *candidates[0].Deadline)
	}
}
