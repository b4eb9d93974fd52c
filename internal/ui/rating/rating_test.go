package rating

import (
	"testing"

	"github.com/campusdesk/backoffice/internal/ui/dom/htmldom"
)

const page = `<body><form>
<span class="star-input"></span><span class="star-input"></span><span class="star-input"></span>
<span class="star-input"></span><span class="star-input"></span>
<input type="hidden" id="rating" name="rating" value="">
</form></body>`

func stars(doc *htmldom.Document) string {
	var out string
	for _, s := range doc.QuerySelectorAll(".star-input") {
		out += s.TextContent()
	}
	return out
}

func TestClampAndParse(t *testing.T) {
	t.Parallel()

	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 3: 3, 5: 5, 9: 5} {
		if got := Clamp(in); got != want {
			t.Errorf("Clamp(%d) = %d, want %d", in, got, want)
		}
	}
	for in, want := range map[string]int{"": 5, "x": 5, " 2 ": 2, "0": 1, "7": 5} {
		if got := Parse(in); got != want {
			t.Errorf("Parse(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestBindResetsToMax(t *testing.T) {
	t.Parallel()

	doc := htmldom.MustParse(page)
	p := New(doc, Config{})
	if p == nil {
		t.Fatal("expected picker")
	}
	p.Bind()
	defer p.Release()

	if got := doc.GetElementByID("rating").Value(); got != "5" {
		t.Fatalf("rating = %q, want 5", got)
	}
	if got := stars(doc); got != "★★★★★" {
		t.Fatalf("stars = %q", got)
	}
}

func TestClickSetsRating(t *testing.T) {
	t.Parallel()

	doc := htmldom.MustParse(page)
	p := New(doc, Config{})
	p.Bind()
	defer p.Release()

	doc.Click(doc.QuerySelectorAll(".star-input")[2])
	if got := doc.GetElementByID("rating").Value(); got != "3" {
		t.Fatalf("rating = %q, want 3", got)
	}
	if got := stars(doc); got != "★★★☆☆" {
		t.Fatalf("stars = %q", got)
	}
	if n := len(doc.QuerySelectorAll(".star-input.active")); n != 3 {
		t.Fatalf("active stars = %d", n)
	}
}

func TestHoverPreviewsAndLeaveRestores(t *testing.T) {
	t.Parallel()

	doc := htmldom.MustParse(page)
	p := New(doc, Config{})
	p.Bind()
	defer p.Release()
	p.Set(2)

	last := doc.QuerySelectorAll(".star-input")[3]
	doc.Dispatch(last, htmldom.NewEvent("mouseenter"))
	if got := stars(doc); got != "★★★★☆" {
		t.Fatalf("preview = %q", got)
	}
	if got := p.Value(); got != 2 {
		t.Fatalf("Value() = %d, preview must not commit", got)
	}
	doc.Dispatch(last, htmldom.NewEvent("mouseleave"))
	if got := stars(doc); got != "★★☆☆☆" {
		t.Fatalf("after leave = %q", got)
	}
}

func TestSyncAfterExternalWrite(t *testing.T) {
	t.Parallel()

	doc := htmldom.MustParse(page)
	p := New(doc, Config{})
	p.Bind()
	defer p.Release()

	doc.GetElementByID("rating").SetValue("4")
	p.Sync()
	if got := stars(doc); got != "★★★★☆" {
		t.Fatalf("stars = %q", got)
	}
}

func TestNewWithoutStarsIsNil(t *testing.T) {
	t.Parallel()

	if New(htmldom.MustParse(`<body><input id="rating"></body>`), Config{}) != nil {
		t.Fatal("expected nil picker")
	}
}
