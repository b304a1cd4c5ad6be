//go:build integration

package postgres

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
)

func TestScheduleSlotRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewScheduleSlotRepo(testPool)
	ctx := context.Background()
	cleanup(t)

	cat, err := model.NewCategory("cat-1", "Tech", "", 1)
	if err != nil {
		t.Fatalf("NewCategory: %v", err)
	}
	if err := NewCategoryRepo(testPool).Save(ctx, cat); err != nil {
		t.Fatalf("save category: %v", err)
	}

	slot, err := model.NewScheduleSlot("slot-1", "09:00", []string{"Monday", "Friday"}, cat.ID, "Europe/Berlin")
	if err != nil {
		t.Fatalf("NewScheduleSlot: %v", err)
	}

	t.Run("should create and read a slot", func(t *testing.T) {
		if err := repo.Save(ctx, slot); err != nil {
			t.Fatalf("save slot: %v", err)
		}
		found, err := repo.FindByID(ctx, slot.ID)
		if err != nil {
			t.Fatalf("find slot: %v", err)
		}
		if found.Time != "09:00" || found.Timezone != "Europe/Berlin" {
			t.Errorf("mismatch in retrieved slot: %+v", found)
		}
		if !reflect.DeepEqual(found.DaysOfWeek, []string{"MONDAY", "FRIDAY"}) {
			t.Errorf("days round-trip wrong: %v", found.DaysOfWeek)
		}
	})

	t.Run("ListActive excludes deactivated slots", func(t *testing.T) {
		off, err := model.NewScheduleSlot("slot-2", "12:00", []string{"DAILY"}, cat.ID, "UTC")
		if err != nil {
			t.Fatalf("NewScheduleSlot: %v", err)
		}
		off.Active = false
		if err := repo.Save(ctx, off); err != nil {
			t.Fatalf("save inactive slot: %v", err)
		}

		active, err := repo.ListActive(ctx)
		if err != nil {
			t.Fatalf("ListActive: %v", err)
		}
		if len(active) != 1 || active[0].ID != "slot-1" {
			t.Errorf("active list wrong: %+v", active)
		}

		all, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("want 2 slots in full list, got %d", len(all))
		}
	})

	t.Run("Delete removes the slot", func(t *testing.T) {
		if err := repo.Delete(ctx, "slot-2"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.FindByID(ctx, "slot-2"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("want ErrNotFound, got %v", err)
		}
	})
}

func TestCategoryRepo_DeletionPolicy(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	cleanup(t)
	catRepo := NewCategoryRepo(testPool)
	promptRepo := NewPromptRepo(testPool)
	slotRepo := NewScheduleSlotRepo(testPool)

	cat, _ := model.NewCategory("cat-1", "Tech", "", 1)
	if err := catRepo.Save(ctx, cat); err != nil {
		t.Fatalf("save category: %v", err)
	}
	prompt, _ := model.NewPrompt("p-1", "daily", "Write about {date}.", cat.ID, 1)
	if err := promptRepo.Save(ctx, prompt); err != nil {
		t.Fatalf("save prompt: %v", err)
	}
	slot, _ := model.NewScheduleSlot("slot-1", "09:00", []string{"DAILY"}, cat.ID, "UTC")
	if err := slotRepo.Save(ctx, slot); err != nil {
		t.Fatalf("save slot: %v", err)
	}

	if err := catRepo.Delete(ctx, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	// prompts go with the category
	if _, err := promptRepo.FindByID(ctx, prompt.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("prompt must cascade away with its category, got %v", err)
	}

	// slots survive with the reference cleared
	found, err := slotRepo.FindByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("slot must survive category deletion: %v", err)
	}
	if found.CategoryID != "" {
		t.Errorf("slot category reference must be cleared, got %q", found.CategoryID)
	}
}

func TestPromptRepo_ListByCategory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	cleanup(t)
	catRepo := NewCategoryRepo(testPool)
	repo := NewPromptRepo(testPool)

	cat, _ := model.NewCategory("cat-1", "Tech", "", 1)
	if err := catRepo.Save(ctx, cat); err != nil {
		t.Fatalf("save category: %v", err)
	}
	other, _ := model.NewCategory("cat-2", "Memes", "", 1)
	if err := catRepo.Save(ctx, other); err != nil {
		t.Fatalf("save other category: %v", err)
	}

	active, _ := model.NewPrompt("p-1", "daily", "Write about {date}.", cat.ID, 2)
	inactive, _ := model.NewPrompt("p-2", "retired", "Old angle.", cat.ID, 1)
	inactive.Active = false
	elsewhere, _ := model.NewPrompt("p-3", "meme", "Make a joke.", other.ID, 1)
	for _, p := range []*model.Prompt{active, inactive, elsewhere} {
		if err := repo.Save(ctx, p); err != nil {
			t.Fatalf("save prompt %s: %v", p.ID, err)
		}
	}

	activeOnly, err := repo.ListByCategory(ctx, cat.ID, true)
	if err != nil {
		t.Fatalf("ListByCategory active: %v", err)
	}
	if len(activeOnly) != 1 || activeOnly[0].ID != "p-1" {
		t.Errorf("active-only list wrong: %+v", activeOnly)
	}

	all, err := repo.ListByCategory(ctx, cat.ID, false)
	if err != nil {
		t.Fatalf("ListByCategory all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("want 2 prompts for category, got %d", len(all))
	}
}
