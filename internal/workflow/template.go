package workflow

import (
	"strings"

	"github.com/TheMichaelB/triplog/internal/coerce"
	"github.com/TheMichaelB/triplog/internal/models"
)

// Template data keys for leg forms.
const (
	KeyStartPlace = "startPlace"
	KeyStartTag   = "startTag"
	KeyEndPlace   = "endPlace"
	KeyEndTag     = "endTag"
	KeyNote       = "note"
)

// Template data keys for trip headers.
const (
	KeyTitle      = "title"
	KeyPurpose    = "purpose"
	KeyTags       = "tags"
	KeyTitleTag   = "titleTag"
	KeyPurposeTag = "purposeTag"
	KeyNotes      = "notes"
)

// SaveTemplate stores tpl. A template without id is added with a fresh one;
// an existing id is replaced in place.
func SaveTemplate(s models.AppState, tpl models.Template) (models.AppState, models.Template, error) {
	tpl.Name = strings.TrimSpace(tpl.Name)
	tpl.Type = strings.ToLower(strings.TrimSpace(tpl.Type))

	if tpl.Name == "" {
		return s, models.Template{}, models.NewValidationError(models.ErrCodeRequired, "name", models.ErrNameRequired)
	}
	if !models.ValidTemplateType(tpl.Type) {
		return s, models.Template{}, models.NewValidationError(models.ErrCodeInvalid, "type", models.ErrTemplateType)
	}

	tpl = tpl.Clone()
	if tpl.Data == nil {
		tpl.Data = map[string]string{}
	}

	next := s.Clone()
	if tpl.ID != "" {
		if idx := findTemplate(next.Templates, tpl.ID); idx >= 0 {
			next.Templates[idx] = tpl
			return next, tpl, nil
		}
	} else {
		tpl.ID = models.NewID()
	}
	next.Templates = append(next.Templates, tpl)

	return next, tpl, nil
}

// DeleteTemplate removes a template.
func DeleteTemplate(s models.AppState, id string) (models.AppState, error) {
	idx := findTemplate(s.Templates, id)
	if idx < 0 {
		return s, &models.NotFoundError{Kind: "template", ID: id}
	}

	next := s.Clone()
	next.Templates = append(next.Templates[:idx:idx], next.Templates[idx+1:]...)
	return next, nil
}

// TemplatesOf returns the templates of one type in stored order.
func TemplatesOf(s models.AppState, typ string) []models.Template {
	out := []models.Template{}
	for _, tpl := range s.Templates {
		if tpl.Type == typ {
			out = append(out, tpl)
		}
	}
	return out
}

// FindTemplate looks up a template by id or, failing that, by name.
func FindTemplate(s models.AppState, ref string) (models.Template, bool) {
	if idx := findTemplate(s.Templates, ref); idx >= 0 {
		return s.Templates[idx], true
	}
	for _, tpl := range s.Templates {
		if strings.EqualFold(tpl.Name, ref) {
			return tpl, true
		}
	}
	return models.Template{}, false
}

// ApplyLegTemplate copies the non-empty template fields into form.
func ApplyLegTemplate(form models.LegForm, tpl models.Template) (models.LegForm, error) {
	if tpl.Type != models.TemplateTypeLeg {
		return form, models.NewValidationError(models.ErrCodeInvalid, "type", models.ErrTemplateType)
	}
	merge(&form.StartPlace, tpl.Data[KeyStartPlace])
	merge(&form.StartTag, tpl.Data[KeyStartTag])
	merge(&form.EndPlace, tpl.Data[KeyEndPlace])
	merge(&form.EndTag, tpl.Data[KeyEndTag])
	merge(&form.Note, tpl.Data[KeyNote])
	return form, nil
}

// ApplyTripTemplate copies the non-empty template fields into a trip header.
func ApplyTripTemplate(in TripInput, tpl models.Template) (TripInput, error) {
	if tpl.Type != models.TemplateTypeTrip {
		return in, models.NewValidationError(models.ErrCodeInvalid, "type", models.ErrTemplateType)
	}
	merge(&in.Title, tpl.Data[KeyTitle])
	merge(&in.Purpose, tpl.Data[KeyPurpose])
	merge(&in.TitleTag, tpl.Data[KeyTitleTag])
	merge(&in.PurposeTag, tpl.Data[KeyPurposeTag])
	merge(&in.Notes, tpl.Data[KeyNotes])
	if tags := coerce.Strings(tpl.Data[KeyTags]); len(tags) > 0 {
		in.Tags = tags
	}
	return in, nil
}

// LegTemplate captures the reusable part of a leg form.
func LegTemplate(name string, form models.LegForm) models.Template {
	return models.Template{
		Type: models.TemplateTypeLeg,
		Name: name,
		Data: compact(map[string]string{
			KeyStartPlace: form.StartPlace,
			KeyStartTag:   form.StartTag,
			KeyEndPlace:   form.EndPlace,
			KeyEndTag:     form.EndTag,
			KeyNote:       form.Note,
		}),
	}
}

// TripTemplate captures the reusable part of a trip header.
func TripTemplate(name string, in TripInput) models.Template {
	return models.Template{
		Type: models.TemplateTypeTrip,
		Name: name,
		Data: compact(map[string]string{
			KeyTitle:      in.Title,
			KeyPurpose:    in.Purpose,
			KeyTags:       strings.Join(in.Tags, ", "),
			KeyTitleTag:   in.TitleTag,
			KeyPurposeTag: in.PurposeTag,
			KeyNotes:      in.Notes,
		}),
	}
}

func merge(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func compact(data map[string]string) map[string]string {
	for k, v := range data {
		if strings.TrimSpace(v) == "" {
			delete(data, k)
		}
	}
	return data
}

func findTemplate(list []models.Template, id string) int {
	if id == "" {
		return -1
	}
	for i, tpl := range list {
		if tpl.ID == id {
			return i
		}
	}
	return -1
}
