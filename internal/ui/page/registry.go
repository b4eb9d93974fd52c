package page

import (
	"sort"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
	"github.com/campusdesk/backoffice/internal/ui/entityform"
	"github.com/campusdesk/backoffice/internal/ui/rowaction"
	"github.com/campusdesk/backoffice/internal/ui/viewfilter"
)

// Descriptor lists the controllers a page runs. Nil or false members are
// skipped.
type Descriptor struct {
	Name string
	// Container carries the data-is-superuser role marker.
	Container string
	Filter    *viewfilter.Config
	Form      *entityform.Config
	Actions   *rowaction.Config
	Respond   *RespondConfig
	Dialogs   []DialogConfig
	Login     bool
	Vacancy   bool
	Rating    bool
	// Applications runs the tabs and bulk selection of the applications page.
	Applications bool
	// Templates runs the schedule template viewer.
	Templates bool
}

// listing describes a filterable entity listing with an edit dialog and
// delete buttons.
func listing(entity, noun, item, modalID, formID string, verbs ...string) Descriptor {
	if len(verbs) == 0 {
		verbs = []string{"delete"}
	}
	return Descriptor{
		Name:      entity,
		Container: "." + entity + "-container",
		Filter: &viewfilter.Config{
			Item:         item,
			ShownDisplay: "flex",
			EmptyState:   ".empty-state",
		},
		Form: &entityform.Config{
			Entity:       entity,
			Modal:        "#" + modalID,
			Form:         "#" + formID,
			ImageInput:   "#image",
			ImagePreview: "#imagePreview",
			RemoveImage:  "#removeImageBtn",
		},
		Actions: &rowaction.Config{Entity: entity, Noun: noun, Verbs: verbs},
	}
}

var registry = func() map[string]Descriptor {
	reviews := listing("reviews", "review", ".review-card", "reviewModal", "reviewForm", "approve", "reject", "delete")
	reviews.Rating = true

	schedule := listing("schedule", "schedule", ".schedule-item", "scheduleModal", "scheduleForm")
	schedule.Form.ImageInput, schedule.Form.ImagePreview, schedule.Form.RemoveImage = "", "", ""
	schedule.Templates = true

	users := listing("users", "user", ".user-row", "userModal", "userForm")
	users.Form.ImageInput, users.Form.ImagePreview, users.Form.RemoveImage = "", "", ""
	users.Dialogs = []DialogConfig{{Modal: "#inviteModal", Opener: "[data-open-invite]", Form: "#inviteForm"}}

	vacancies := listing("vacancies", "vacancy", ".vacancy-card", "vacancyModal", "vacancyForm")
	vacancies.Form.ImageInput, vacancies.Form.ImagePreview, vacancies.Form.RemoveImage = "", "", ""
	vacancies.Vacancy = true

	feedback := Descriptor{
		Name:      "feedback",
		Container: ".feedback-container",
		Filter: &viewfilter.Config{
			Item:         ".feedback-card",
			ShownDisplay: "flex",
			EmptyState:   ".empty-state",
		},
		Respond: &RespondConfig{},
	}

	descriptors := []Descriptor{
		reviews,
		listing("news", "news", ".news-card", "newsModal", "newsForm"),
		listing("colleges", "college", ".college-card", "collegeModal", "collegeForm", "toggle", "delete"),
		listing("partners", "partner", ".partner-card", "partnerModal", "partnerForm"),
		schedule,
		users,
		vacancies,
		feedback,
		{Name: "vacancy-form", Vacancy: true},
		{Name: "vacancy-applications", Applications: true},
		{Name: "login", Login: true},
		{Name: "dashboard"},
	}
	out := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		out[d.Name] = d
	}
	return out
}()

// Lookup returns the descriptor registered under name.
func Lookup(name string) (Descriptor, error) {
	d, ok := registry[name]
	if !ok {
		return Descriptor{}, apperrors.WithMetadata(apperrors.CodePageUnknown, "unknown page", map[string]string{"Page": name})
	}
	return d, nil
}

// Names lists the registered pages in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
