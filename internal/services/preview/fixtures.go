package preview

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
	"github.com/campusdesk/backoffice/internal/ui/page"
)

//go:embed fixtures/default.yaml
var defaultFixtures embed.FS

// Fixtures is the data the preview pages render.
type Fixtures struct {
	Login Credentials            `yaml:"login"`
	Pages map[string]PageFixture `yaml:"pages"`
	// Templates are the schedule templates keyed by college name.
	Templates map[string]ScheduleTemplate `yaml:"templates"`
}

// ScheduleTemplate is one college's weekly timetable. Every slot has one
// cell per day, in Days order.
type ScheduleTemplate struct {
	LastUpdated string         `yaml:"last_updated"`
	Days        []string       `yaml:"days"`
	Slots       []ScheduleSlot `yaml:"slots"`
}

// ScheduleSlot is one time row of a template.
type ScheduleSlot struct {
	Time  string   `yaml:"time"`
	Cells []string `yaml:"cells"`
}

// Document renders the template as the JSON the schedule page reads,
// keeping slot and day order.
func (t ScheduleTemplate) Document(college string) json.RawMessage {
	var b bytes.Buffer
	str := func(s string) {
		enc, _ := json.Marshal(s)
		b.Write(enc)
	}
	b.WriteString(`{"college_name":`)
	str(college)
	b.WriteString(`,"last_updated":`)
	str(t.LastUpdated)
	b.WriteString(`,"schedule":{`)
	for i, slot := range t.Slots {
		if i > 0 {
			b.WriteByte(',')
		}
		str(slot.Time)
		b.WriteString(`:{`)
		for j, day := range t.Days {
			if j > 0 {
				b.WriteByte(',')
			}
			str(day)
			b.WriteByte(':')
			if j < len(slot.Cells) && slot.Cells[j] != "" {
				str(slot.Cells[j])
			} else {
				b.WriteString("null")
			}
		}
		b.WriteByte('}')
	}
	b.WriteString("}}")
	return b.Bytes()
}

// Credentials are the accepted preview login.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
}

// PageFixture describes one listing page.
type PageFixture struct {
	Title string `yaml:"title"`
	// RedirectAfter becomes <body data-redirect-after>.
	RedirectAfter string  `yaml:"redirect_after"`
	Fields        []Field `yaml:"fields"`
	Items         []Item  `yaml:"items"`
}

// Field is one input of the edit dialog.
type Field struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Type  string `yaml:"type"`
}

// Item is one listed entity.
type Item struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	// Body is markdown.
	Body     string         `yaml:"body"`
	Hidden   bool           `yaml:"hidden"`
	ImageURL string         `yaml:"image_url"`
	Values   map[string]any `yaml:"values"`
}

// Detail is the JSON document served for the edit dialog.
func (it Item) Detail() map[string]any {
	out := make(map[string]any, len(it.Values)+2)
	for k, v := range it.Values {
		out[k] = v
	}
	out["id"] = it.ID
	if it.ImageURL != "" {
		out["image_url"] = it.ImageURL
	}
	return out
}

// Find returns the item with id.
func (p PageFixture) Find(id string) (Item, bool) {
	for _, it := range p.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// LoadFixtures reads fixtures from path, or the embedded defaults when path
// is blank.
func LoadFixtures(path string) (Fixtures, error) {
	var (
		data []byte
		err  error
	)
	if strings.TrimSpace(path) == "" {
		data, err = defaultFixtures.ReadFile("fixtures/default.yaml")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Fixtures{}, apperrors.Wrap(apperrors.CodeFixtureInvalid, "read fixtures", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes and validates a fixture document. Every page must be
// a registered admin page and item ids must be unique within a page.
func ParseFixtures(data []byte) (Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return Fixtures{}, apperrors.Wrap(apperrors.CodeFixtureInvalid, "decode fixtures", err)
	}
	for name, p := range fx.Pages {
		if _, err := page.Lookup(name); err != nil {
			return Fixtures{}, apperrors.WrapWithMetadata(apperrors.CodeFixtureInvalid,
				fmt.Sprintf("page %q is not an admin page", name), map[string]string{"Page": name}, err)
		}
		seen := make(map[string]bool, len(p.Items))
		for i, it := range p.Items {
			if strings.TrimSpace(it.ID) == "" {
				return Fixtures{}, apperrors.WithMetadata(apperrors.CodeFixtureInvalid,
					fmt.Sprintf("page %q item %d has no id", name, i), map[string]string{"Page": name})
			}
			if seen[it.ID] {
				return Fixtures{}, apperrors.WithMetadata(apperrors.CodeFixtureInvalid,
					fmt.Sprintf("page %q repeats item %q", name, it.ID), map[string]string{"Page": name, "Item": it.ID})
			}
			seen[it.ID] = true
		}
	}
	for college, tpl := range fx.Templates {
		for _, slot := range tpl.Slots {
			if len(slot.Cells) > len(tpl.Days) {
				return Fixtures{}, apperrors.WithMetadata(apperrors.CodeFixtureInvalid,
					fmt.Sprintf("template %q slot %q has more cells than days", college, slot.Time),
					map[string]string{"College": college})
			}
		}
	}
	if fx.Pages == nil {
		fx.Pages = map[string]PageFixture{}
	}
	return fx, nil
}
