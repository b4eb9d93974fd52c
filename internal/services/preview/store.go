package preview

import (
	"sort"
	"strings"
	"sync"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
	"github.com/campusdesk/backoffice/internal/platform/id"
)

// store holds the mutable copy of the fixtures a preview session edits.
type store struct {
	mu        sync.RWMutex
	login     Credentials
	pages     map[string]PageFixture
	templates map[string]ScheduleTemplate
}

func newStore(fx Fixtures) *store {
	pages := make(map[string]PageFixture, len(fx.Pages))
	for name, p := range fx.Pages {
		p.Items = append([]Item(nil), p.Items...)
		pages[name] = p
	}
	templates := make(map[string]ScheduleTemplate, len(fx.Templates))
	for college, tpl := range fx.Templates {
		templates[college] = tpl
	}
	return &store{login: fx.Login, pages: pages, templates: templates}
}

// colleges lists the colleges that have a schedule template.
func (s *store) colleges() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.templates))
	for college := range s.templates {
		out = append(out, college)
	}
	sort.Strings(out)
	return out
}

func (s *store) template(college string) (ScheduleTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[college]
	return tpl, ok
}

// dropTemplates deletes every schedule template and reports how many there
// were.
func (s *store) dropTemplates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.templates)
	s.templates = map[string]ScheduleTemplate{}
	return n
}

// setStatus sets the status value of the listed items of a page. Unknown
// ids fail the whole update.
func (s *store) setStatus(pageName string, itemIDs []string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[pageName]
	if !ok {
		return notFound(pageName, strings.Join(itemIDs, ","))
	}
	items := append([]Item(nil), p.Items...)
	for _, itemID := range itemIDs {
		idx := -1
		for i, it := range items {
			if it.ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return notFound(pageName, itemID)
		}
		values := make(map[string]any, len(items[idx].Values)+1)
		for k, v := range items[idx].Values {
			values[k] = v
		}
		values["status"] = status
		items[idx].Values = values
	}
	p.Items = items
	s.pages[pageName] = p
	return nil
}

func (s *store) credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.login
}

func (s *store) page(name string) (PageFixture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[name]
	if !ok {
		return PageFixture{}, false
	}
	p.Items = append([]Item(nil), p.Items...)
	return p, true
}

func (s *store) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.pages))
	for name := range s.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *store) item(pageName, itemID string) (Item, error) {
	p, ok := s.page(pageName)
	if !ok {
		return Item{}, notFound(pageName, itemID)
	}
	it, ok := p.Find(itemID)
	if !ok {
		return Item{}, notFound(pageName, itemID)
	}
	return it, nil
}

// apply runs a row action on an item.
func (s *store) apply(pageName, itemID, verb string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[pageName]
	if !ok {
		return notFound(pageName, itemID)
	}
	idx := -1
	for i, it := range p.Items {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return notFound(pageName, itemID)
	}
	items := append([]Item(nil), p.Items...)
	switch verb {
	case "approve":
		items[idx].Hidden = false
	case "reject":
		items[idx].Hidden = true
	case "toggle":
		items[idx].Hidden = !items[idx].Hidden
	case "delete":
		items = append(items[:idx], items[idx+1:]...)
	case "respond":
	default:
		return apperrors.WithMetadata(apperrors.CodeNotFound, "unknown action", map[string]string{"Verb": verb})
	}
	p.Items = items
	s.pages[pageName] = p
	return nil
}

// save creates an item when itemID is blank and updates it otherwise. Only
// the page's declared fields are taken from values.
func (s *store) save(pageName, itemID string, values map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[pageName]
	if !ok {
		return "", notFound(pageName, itemID)
	}
	items := append([]Item(nil), p.Items...)
	idx := -1
	if itemID == "" {
		newID, err := id.NewID()
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeUnknown, "generate item id", err)
		}
		items = append(items, Item{ID: newID, Values: map[string]any{}})
		idx = len(items) - 1
	} else {
		for i, it := range items {
			if it.ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", notFound(pageName, itemID)
		}
	}
	it := items[idx]
	merged := make(map[string]any, len(it.Values)+len(p.Fields))
	for k, v := range it.Values {
		merged[k] = v
	}
	for _, f := range p.Fields {
		if f.Type == "file" {
			continue
		}
		v, present := values[f.Name]
		if f.Type == "checkbox" {
			merged[f.Name] = present && v != "" && v != "false"
			continue
		}
		merged[f.Name] = v
	}
	if values["remove_image"] == "true" {
		it.ImageURL = ""
	}
	it.Values = merged
	if len(p.Fields) > 0 {
		if title, ok := merged[p.Fields[0].Name].(string); ok && strings.TrimSpace(title) != "" {
			it.Title = title
		}
	}
	items[idx] = it
	p.Items = items
	s.pages[pageName] = p
	return it.ID, nil
}

func notFound(pageName, itemID string) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound, "item not found", map[string]string{"Page": pageName, "Item": itemID})
}
