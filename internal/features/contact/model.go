package contact

import (
	"errors"
	"time"
)

type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusDeleted SyncStatus = "deleted"
)

var ErrNotFound = errors.New("contact not found")

// Contact is the local replica of one Notion contact page. Every field except
// SyncStatus is derived from the page.
type Contact struct {
	NotionID string `json:"notion_id" bson:"notion_id"`

	Name         string `json:"name,omitempty" bson:"name"`
	FirstName    string `json:"first_name,omitempty" bson:"first_name"`
	LastName     string `json:"last_name,omitempty" bson:"last_name"`
	Email        string `json:"email,omitempty" bson:"email"`
	Phone        string `json:"phone,omitempty" bson:"phone"`
	Title        string `json:"title,omitempty" bson:"title"`
	Affiliation  string `json:"affiliation,omitempty" bson:"affiliation"`
	Department   string `json:"department,omitempty" bson:"department"`
	MemberStatus string `json:"member_status,omitempty" bson:"member_status"`
	Birthdate    string `json:"birthdate,omitempty" bson:"birthdate"`

	Sport                 []string `json:"sport,omitempty" bson:"sport"`
	SportRole             []string `json:"sport_role,omitempty" bson:"sport_role"`
	GovernanceGroup       []string `json:"governance_group,omitempty" bson:"governance_group"`
	LiaisonCompliance     []string `json:"liaison_compliance,omitempty" bson:"liaison_compliance"`
	LiaisonChampionships  []string `json:"liaison_championships,omitempty" bson:"liaison_championships"`
	LiaisonOfficiating    []string `json:"liaison_officiating,omitempty" bson:"liaison_officiating"`
	LiaisonStudentWelfare []string `json:"liaison_student_welfare,omitempty" bson:"liaison_student_welfare"`
	LiaisonCommunications []string `json:"liaison_communications,omitempty" bson:"liaison_communications"`

	AdditionalProperties map[string]any `json:"additional_properties" bson:"additional_properties"`

	NotionCreatedTime    time.Time `json:"notion_created_time" bson:"notion_created_time"`
	NotionLastEditedTime time.Time `json:"notion_last_edited_time" bson:"notion_last_edited_time"`
	NotionURL            string    `json:"notion_url" bson:"notion_url"`

	SyncStatus SyncStatus `json:"sync_status" bson:"sync_status"`
}

// ListField returns a pointer to the list column with the given name, or nil.
func (c *Contact) ListField(column string) *[]string {
	switch column {
	case "sport":
		return &c.Sport
	case "sport_role":
		return &c.SportRole
	case "governance_group":
		return &c.GovernanceGroup
	case "liaison_compliance":
		return &c.LiaisonCompliance
	case "liaison_championships":
		return &c.LiaisonChampionships
	case "liaison_officiating":
		return &c.LiaisonOfficiating
	case "liaison_student_welfare":
		return &c.LiaisonStudentWelfare
	case "liaison_communications":
		return &c.LiaisonCommunications
	}
	return nil
}

// ScalarField returns a pointer to the text column with the given name, or nil.
func (c *Contact) ScalarField(column string) *string {
	switch column {
	case "name":
		return &c.Name
	case "first_name":
		return &c.FirstName
	case "last_name":
		return &c.LastName
	case "email":
		return &c.Email
	case "phone":
		return &c.Phone
	case "title":
		return &c.Title
	case "affiliation":
		return &c.Affiliation
	case "department":
		return &c.Department
	case "member_status":
		return &c.MemberStatus
	case "birthdate":
		return &c.Birthdate
	}
	return nil
}

// SyncKey is the slice of a contact a full sync diffs against.
type SyncKey struct {
	NotionID             string     `bson:"notion_id"`
	NotionLastEditedTime time.Time  `bson:"notion_last_edited_time"`
	SyncStatus           SyncStatus `bson:"sync_status"`
}

type ContactFilter struct {
	Status SyncStatus
	Sport  string
	Search string // matches name or email, case-insensitive
	Limit  int64
	Offset int64
}
