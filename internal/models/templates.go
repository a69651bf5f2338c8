package models

// Template is a named set of note sections governing which keys a
// ClinicalNote's Sections mapping may contain.
type Template struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Sections []TemplateSection `json:"sections"`
}

type TemplateSection struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

const DefaultTemplate = "soap"

var Templates = map[string]Template{
	"soap": {
		ID:   "soap",
		Name: "SOAP Note",
		Sections: []TemplateSection{
			{ID: "subjective", Label: "Subjective"},
			{ID: "objective", Label: "Objective"},
			{ID: "assessment", Label: "Assessment"},
			{ID: "plan", Label: "Plan"},
		},
	},
	"apso": {
		ID:   "apso",
		Name: "APSO Note",
		Sections: []TemplateSection{
			{ID: "assessment", Label: "Assessment"},
			{ID: "plan", Label: "Plan"},
			{ID: "subjective", Label: "Subjective"},
			{ID: "objective", Label: "Objective"},
		},
	},
	"birp": {
		ID:   "birp",
		Name: "BIRP Note",
		Sections: []TemplateSection{
			{ID: "behavior", Label: "Behavior"},
			{ID: "intervention", Label: "Intervention"},
			{ID: "response", Label: "Response"},
			{ID: "plan", Label: "Plan"},
		},
	},
	"freeform": {
		ID:   "freeform",
		Name: "Free-form Note",
		Sections: []TemplateSection{
			{ID: "notes", Label: "Notes"},
		},
	},
}

// TemplateByID returns the template for id, falling back to SOAP for
// unknown ids so a note always has a valid section list.
func TemplateByID(id string) Template {
	if t, ok := Templates[id]; ok {
		return t
	}
	return Templates[DefaultTemplate]
}
