package sync

import (
	"sort"
	"strconv"
	"strings"

	"go-confops/internal/connectors"
	"go-confops/internal/features/contact"
)

// Property names that land in a list column. Checked before scalarColumns.
var listColumns = map[string]string{
	"Sport":                                "sport",
	"Sports":                               "sport",
	"Sport(s)":                             "sport",
	"Sport Role":                           "sport_role",
	"Governance Group":                     "governance_group",
	"Liaison For: Compliance":              "liaison_compliance",
	"Liaison For: Championships":           "liaison_championships",
	"Liaison For: Officiating":             "liaison_officiating",
	"Liaison For: Student-Athlete Welfare": "liaison_student_welfare",
	"Liaison For: Communications":          "liaison_communications",
}

var scalarColumns = map[string]string{
	"Name":          "name",
	"First Name":    "first_name",
	"Last Name":     "last_name",
	"Email":         "email",
	"Phone":         "phone",
	"Birthdate":     "birthdate",
	"Affiliation":   "affiliation",
	"Title":         "title",
	"Department":    "department",
	"Member Status": "member_status",
}

// Transcode maps one Notion page onto a contact draft. Properties are visited
// in name order so aliases of the same column resolve the same way every run.
func Transcode(page connectors.Page) *contact.Contact {
	c := &contact.Contact{
		NotionID:             page.ID,
		NotionCreatedTime:    page.CreatedTime.UTC(),
		NotionLastEditedTime: page.LastEditedTime.UTC(),
		NotionURL:            page.URL,
		SyncStatus:           contact.SyncStatusSynced,
		AdditionalProperties: map[string]any{},
	}

	names := make([]string, 0, len(page.Properties))
	for name := range page.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := extractValue(page.Properties[name])
		if isAbsent(value) {
			continue
		}
		if column, ok := listColumns[name]; ok {
			*c.ListField(column) = asList(value)
			continue
		}
		if column, ok := scalarColumns[name]; ok {
			*c.ScalarField(column) = asString(value)
			continue
		}
		c.AdditionalProperties[name] = value
	}
	return c
}

// extractValue returns the plain value of a property: string, []string, bool
// or float64. Unsupported tags yield nil.
func extractValue(p connectors.PropertyValue) any {
	switch p.Type {
	case "title":
		return plainText(p.Title)
	case "rich_text":
		return plainText(p.RichText)
	case "select":
		if p.Select != nil {
			return p.Select.Name
		}
	case "status":
		if p.Status != nil {
			return p.Status.Name
		}
	case "multi_select":
		names := make([]string, 0, len(p.MultiSelect))
		for _, opt := range p.MultiSelect {
			names = append(names, opt.Name)
		}
		return names
	case "people":
		people := make([]string, 0, len(p.People))
		for _, u := range p.People {
			if u.Name != "" {
				people = append(people, u.Name)
			} else {
				people = append(people, u.ID)
			}
		}
		return strings.Join(people, ", ")
	case "relation":
		ids := make([]string, 0, len(p.Relation))
		for _, r := range p.Relation {
			ids = append(ids, r.ID)
		}
		return strings.Join(ids, ", ")
	case "date":
		if p.Date != nil {
			return p.Date.Start
		}
	case "checkbox":
		if p.Checkbox != nil {
			return *p.Checkbox
		}
	case "number":
		if p.Number != nil {
			return *p.Number
		}
	case "email":
		return deref(p.Email)
	case "phone_number":
		return deref(p.PhoneNumber)
	case "url":
		return deref(p.URL)
	case "formula":
		return formulaValue(p.Formula)
	case "unique_id":
		if p.UniqueID != nil && p.UniqueID.Number != nil {
			n := strconv.FormatInt(*p.UniqueID.Number, 10)
			if prefix := deref(p.UniqueID.Prefix); prefix != "" {
				return prefix + "-" + n
			}
			return n
		}
	case "created_time":
		return deref(p.CreatedTime)
	case "last_edited_time":
		return deref(p.LastEditedTime)
	}
	return nil
}

func formulaValue(f *connectors.Formula) any {
	if f == nil {
		return nil
	}
	switch f.Type {
	case "string":
		return deref(f.String)
	case "number":
		if f.Number != nil {
			return *f.Number
		}
	case "boolean":
		if f.Boolean != nil {
			return *f.Boolean
		}
	case "date":
		if f.Date != nil {
			return f.Date.Start
		}
	}
	return nil
}

func plainText(spans []connectors.RichText) string {
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.PlainText)
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// isAbsent treats nil, "" and empty lists as missing. false and 0 are values.
func isAbsent(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []string:
		return len(val) == 0
	}
	return false
}

func asList(v any) []string {
	if list, ok := v.([]string); ok {
		return append([]string(nil), list...)
	}
	return []string{asString(v)}
}

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return ""
}
