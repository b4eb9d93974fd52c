package modal

import (
	"testing"

	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/dom/htmldom"
)

const page = `<body>
<div id="collegeModal" class="modal" style="display: none">
  <div class="modal-content"><span class="close">×</span><form id="collegeForm"></form></div>
</div>
</body>`

func TestOpenCloseRunsHooksOnce(t *testing.T) {
	t.Parallel()

	doc := htmldom.MustParse(page)
	opens, closes := 0, 0
	m := New(doc, "#collegeModal", Hooks{
		OnOpen:  func() { opens++ },
		OnClose: func() { closes++ },
	})
	if m.State() != Closed {
		t.Fatalf("State() = %s, want closed", m.State())
	}

	m.Open()
	m.Open()
	if opens != 1 || m.State() != Open {
		t.Fatalf("opens = %d state = %s", opens, m.State())
	}
	if dom.Hidden(m.Element()) {
		t.Fatal("expected dialog shown")
	}
	if doc.Body().Style("overflow") != "hidden" {
		t.Fatal("expected body scroll lock")
	}

	m.Close()
	m.Close()
	if closes != 1 || m.State() != Closed {
		t.Fatalf("closes = %d state = %s", closes, m.State())
	}
	if !dom.Hidden(m.Element()) || doc.Body().Style("overflow") != "" {
		t.Fatal("expected dialog hidden and scroll restored")
	}
}

func TestBackdropAndEscapeClose(t *testing.T) {
	t.Parallel()

	doc := htmldom.MustParse(page)
	m := New(doc, "#collegeModal", Hooks{})

	m.Open()
	doc.Dispatch(doc.QuerySelector(".modal-content"), htmldom.NewEvent("click"))
	if m.State() != Open {
		t.Fatal("click inside content closed the dialog")
	}
	doc.Dispatch(m.Element(), htmldom.NewEvent("click"))
	if m.State() != Closed {
		t.Fatal("expected backdrop click to close")
	}

	m.Open()
	doc.Dispatch(nil, htmldom.KeyDown("Enter"))
	if m.State() != Open {
		t.Fatal("Enter closed the dialog")
	}
	doc.Dispatch(nil, htmldom.KeyDown("Escape"))
	if m.State() != Closed {
		t.Fatal("expected Escape to close")
	}

	m.Open()
	doc.Click(doc.QuerySelector(".close"))
	if m.State() != Closed {
		t.Fatal("expected close control to close")
	}
}

func TestMissingDialogIsNil(t *testing.T) {
	t.Parallel()

	doc := htmldom.MustParse(page)
	m := New(doc, "#missing", Hooks{})
	if m != nil {
		t.Fatal("expected nil modal")
	}
	m.Open()
	m.Close()
	m.Release()
	if m.State() != Closed {
		t.Fatal("nil modal should report closed")
	}
}

func TestReleaseDetachesListeners(t *testing.T) {
	t.Parallel()

	doc := htmldom.MustParse(page)
	m := New(doc, "#collegeModal", Hooks{})
	m.Release()
	if doc.ListenerCount() != 0 {
		t.Fatalf("ListenerCount() = %d", doc.ListenerCount())
	}
	m.Open()
	doc.Dispatch(nil, htmldom.KeyDown("Escape"))
	if m.State() != Open {
		t.Fatal("released modal still reacts to Escape")
	}
}
