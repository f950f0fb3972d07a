package contact

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Contacts"

type ContactService interface {
	List(ctx context.Context, filter ContactFilter) ([]Contact, error)
	Get(ctx context.Context, notionID string) (*Contact, error)
	Stats(ctx context.Context) (map[SyncStatus]int64, error)
	ExportXLSX(ctx context.Context, filter ContactFilter, w io.Writer) (int, error)
}

type ContactServiceImpl struct {
	Repo ContactRepository
}

func NewContactService(repo ContactRepository) ContactService {
	return &ContactServiceImpl{Repo: repo}
}

func (s *ContactServiceImpl) List(ctx context.Context, filter ContactFilter) ([]Contact, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.Repo.List(ctx, filter)
}

func (s *ContactServiceImpl) Get(ctx context.Context, notionID string) (*Contact, error) {
	return s.Repo.FindByNotionID(ctx, notionID)
}

func (s *ContactServiceImpl) Stats(ctx context.Context) (map[SyncStatus]int64, error) {
	return s.Repo.CountByStatus(ctx)
}

type exportColumn struct {
	header string
	value  func(c *Contact) any
}

var exportColumns = []exportColumn{
	{"Notion ID", func(c *Contact) any { return c.NotionID }},
	{"Name", func(c *Contact) any { return c.Name }},
	{"First Name", func(c *Contact) any { return c.FirstName }},
	{"Last Name", func(c *Contact) any { return c.LastName }},
	{"Email", func(c *Contact) any { return c.Email }},
	{"Phone", func(c *Contact) any { return c.Phone }},
	{"Title", func(c *Contact) any { return c.Title }},
	{"Affiliation", func(c *Contact) any { return c.Affiliation }},
	{"Department", func(c *Contact) any { return c.Department }},
	{"Member Status", func(c *Contact) any { return c.MemberStatus }},
	{"Birthdate", func(c *Contact) any { return c.Birthdate }},
	{"Sport", func(c *Contact) any { return strings.Join(c.Sport, ", ") }},
	{"Sport Role", func(c *Contact) any { return strings.Join(c.SportRole, ", ") }},
	{"Governance Group", func(c *Contact) any { return strings.Join(c.GovernanceGroup, ", ") }},
	{"Last Edited", func(c *Contact) any { return c.NotionLastEditedTime.UTC().Format(time.RFC3339) }},
	{"Sync Status", func(c *Contact) any { return string(c.SyncStatus) }},
	{"Notion URL", func(c *Contact) any { return c.NotionURL }},
}

// ExportXLSX writes the matching contacts as a spreadsheet and returns the
// number of data rows written.
func (s *ContactServiceImpl) ExportXLSX(ctx context.Context, filter ContactFilter, w io.Writer) (int, error) {
	contacts, err := s.Repo.List(ctx, filter)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return 0, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return 0, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, col.header)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for rowIdx := range contacts {
		for colIdx, col := range exportColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(exportSheet, cell, col.value(&contacts[rowIdx]))
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheet, col, col, 18)
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write xlsx: %w", err)
	}
	return len(contacts), nil
}
