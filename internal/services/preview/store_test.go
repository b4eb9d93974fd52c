package preview

import (
	"testing"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
)

func testStore() *store {
	return newStore(Fixtures{
		Login: Credentials{Username: "u", Password: "p", Token: "t"},
		Pages: map[string]PageFixture{
			"news": {
				Title: "News",
				Fields: []Field{
					{Name: "title"},
					{Name: "is_active", Type: "checkbox"},
					{Name: "image", Type: "file"},
				},
				Items: []Item{
					{ID: "1", Title: "One", ImageURL: "/news/1/image", Values: map[string]any{"title": "One", "is_active": true}},
					{ID: "2", Title: "Two", Hidden: true},
				},
			},
		},
	})
}

func TestStoreApply(t *testing.T) {
	t.Parallel()

	s := testStore()
	if err := s.apply("news", "2", "approve"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if it, _ := s.item("news", "2"); it.Hidden {
		t.Fatal("approve left item hidden")
	}
	if err := s.apply("news", "1", "reject"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if it, _ := s.item("news", "1"); !it.Hidden {
		t.Fatal("reject left item visible")
	}
	if err := s.apply("news", "1", "delete"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.item("news", "1"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("deleted item err = %v", err)
	}
	if err := s.apply("news", "2", "archive"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("unknown verb err = %v", err)
	}
	if err := s.apply("events", "2", "delete"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("unknown page err = %v", err)
	}
}

func TestStorePageReturnsCopy(t *testing.T) {
	t.Parallel()

	s := testStore()
	p, _ := s.page("news")
	p.Items[0].Title = "changed"
	if it, _ := s.item("news", "1"); it.Title != "One" {
		t.Fatalf("store mutated through copy: %q", it.Title)
	}
}

func TestStoreSaveCreates(t *testing.T) {
	t.Parallel()

	s := testStore()
	newID, err := s.save("news", "", map[string]string{"title": "Three", "is_active": "on", "unknown": "x"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	it, err := s.item("news", newID)
	if err != nil {
		t.Fatalf("item: %v", err)
	}
	if it.Title != "Three" || it.Values["is_active"] != true {
		t.Fatalf("item = %+v", it)
	}
	if _, ok := it.Values["unknown"]; ok {
		t.Fatal("undeclared field stored")
	}
}

func TestStoreSaveUpdates(t *testing.T) {
	t.Parallel()

	s := testStore()
	if _, err := s.save("news", "1", map[string]string{"title": "Renamed", "remove_image": "true"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	it, _ := s.item("news", "1")
	if it.Title != "Renamed" || it.ImageURL != "" || it.Values["is_active"] != false {
		t.Fatalf("item = %+v", it)
	}
	if _, err := s.save("news", "9", nil); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("missing item err = %v", err)
	}
}

func TestStoreToggle(t *testing.T) {
	t.Parallel()

	s := testStore()
	if err := s.apply("news", "2", "toggle"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if it, _ := s.item("news", "2"); it.Hidden {
		t.Fatal("toggle left hidden item hidden")
	}
	if err := s.apply("news", "2", "toggle"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if it, _ := s.item("news", "2"); !it.Hidden {
		t.Fatal("second toggle did not hide the item")
	}
}

func TestStoreSetStatus(t *testing.T) {
	t.Parallel()

	s := testStore()
	before, _ := s.item("news", "1")
	if err := s.setStatus("news", []string{"1", "2"}, "accepted"); err != nil {
		t.Fatalf("setStatus: %v", err)
	}
	for _, id := range []string{"1", "2"} {
		if it, _ := s.item("news", id); it.Values["status"] != "accepted" {
			t.Fatalf("item %s status = %v", id, it.Values["status"])
		}
	}
	if _, ok := before.Values["status"]; ok {
		t.Fatal("setStatus wrote through to an earlier copy")
	}

	err := s.setStatus("news", []string{"1", "404"}, "rejected")
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("unknown id err = %v", err)
	}
	if it, _ := s.item("news", "1"); it.Values["status"] != "accepted" {
		t.Fatal("failed update changed an item")
	}
}

func TestStoreTemplates(t *testing.T) {
	t.Parallel()

	s := newStore(Fixtures{Templates: map[string]ScheduleTemplate{
		"Б": {Days: []string{"Пн"}},
		"А": {Days: []string{"Вт"}},
	}})
	if got := s.colleges(); len(got) != 2 || got[0] != "А" || got[1] != "Б" {
		t.Fatalf("colleges() = %v", got)
	}
	if tpl, ok := s.template("А"); !ok || tpl.Days[0] != "Вт" {
		t.Fatalf("template(А) = %+v, %v", tpl, ok)
	}
	if n := s.dropTemplates(); n != 2 {
		t.Fatalf("dropTemplates() = %d", n)
	}
	if _, ok := s.template("А"); ok || len(s.colleges()) != 0 {
		t.Fatal("templates survived dropTemplates")
	}
}
