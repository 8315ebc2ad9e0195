package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/pkg/funnel"
	"github.com/tofa/academy-backend/pkg/validator"
)

// ImportService owns the two-step CSV lead import: preview parses and
// validates every row without writing leads; commit replays the stored rows
// and inserts the valid, non-duplicate ones.
type ImportService struct {
	importRepo *database.ImportRepository
	leadRepo   *database.LeadRepository
	phone      *validator.PhoneValidator
	maxRows    int
}

// NewImportService creates a new import service
func NewImportService(importRepo *database.ImportRepository, leadRepo *database.LeadRepository, maxRows int) *ImportService {
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &ImportService{
		importRepo: importRepo,
		leadRepo:   leadRepo,
		phone:      validator.NewPhoneValidator(),
		maxRows:    maxRows,
	}
}

// Lead fields recognized by the column mapping.
const (
	fieldPlayerName  = "player_name"
	fieldParentName  = "parent_name"
	fieldPhone       = "phone"
	fieldEmail       = "email"
	fieldDateOfBirth = "date_of_birth"
	fieldCenterID    = "center_id"
	fieldSource      = "source"
	fieldScore       = "score"
)

// autoMapping maps common CSV header spellings onto lead fields.
var autoMapping = map[string]string{
	"player name":   fieldPlayerName,
	"player_name":   fieldPlayerName,
	"name":          fieldPlayerName,
	"child name":    fieldPlayerName,
	"parent name":   fieldParentName,
	"parent_name":   fieldParentName,
	"parent":        fieldParentName,
	"phone":         fieldPhone,
	"phone number":  fieldPhone,
	"mobile":        fieldPhone,
	"contact":       fieldPhone,
	"email":         fieldEmail,
	"e-mail":        fieldEmail,
	"dob":           fieldDateOfBirth,
	"date of birth": fieldDateOfBirth,
	"date_of_birth": fieldDateOfBirth,
	"center":        fieldCenterID,
	"center_id":     fieldCenterID,
	"source":        fieldSource,
	"score":         fieldScore,
}

// PreviewResult is the preview response: the stored job plus per-row
// validation outcomes.
type PreviewResult struct {
	Job  *models.ImportJob        `json:"job"`
	Rows []models.ImportRowResult `json:"rows"`
}

// Preview parses the CSV, validates every row and stores the job for a later
// commit. No leads are written. An explicit header mapping overrides the
// automatic one; headers that map to nothing are ignored.
func (s *ImportService) Preview(uploadedBy uuid.UUID, fileName string, r io.Reader, mapping map[string]string) (*PreviewResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := s.resolveColumns(header, mapping)
	if _, ok := findField(columns, fieldPlayerName); !ok {
		return nil, fmt.Errorf("no column maps to player_name")
	}

	rawRows := [][]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(rawRows)+2, err)
		}
		rawRows = append(rawRows, record)
		if len(rawRows) > s.maxRows {
			return nil, fmt.Errorf("file exceeds the %d row limit", s.maxRows)
		}
	}

	results := s.validateRows(rawRows, columns)

	valid := 0
	for _, res := range results {
		if res.Valid {
			valid++
		}
	}

	mappingJSON, err := json.Marshal(columns)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mapping: %w", err)
	}
	rowsJSON, err := json.Marshal(rawRows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rows: %w", err)
	}

	job := &models.ImportJob{
		UploadedBy:   uploadedBy,
		FileName:     fileName,
		Mapping:      string(mappingJSON),
		RawRows:      string(rowsJSON),
		RowCount:     len(rawRows),
		ValidCount:   valid,
		InvalidCount: len(rawRows) - valid,
	}
	if err := s.importRepo.Create(job); err != nil {
		return nil, err
	}

	return &PreviewResult{Job: job, Rows: results}, nil
}

// resolveColumns decides the lead field behind each CSV column. Explicit
// mapping entries win over the automatic header match.
func (s *ImportService) resolveColumns(header []string, mapping map[string]string) []string {
	columns := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if mapping != nil {
			if field, ok := mapping[h]; ok {
				columns[i] = field
				continue
			}
			if field, ok := mapping[key]; ok {
				columns[i] = field
				continue
			}
		}
		columns[i] = autoMapping[key]
	}
	return columns
}

func findField(columns []string, field string) (int, bool) {
	for i, f := range columns {
		if f == field {
			return i, true
		}
	}
	return 0, false
}

// validateRows builds a draft lead per row and names the fields that are
// missing or invalid.
func (s *ImportService) validateRows(rows [][]string, columns []string) []models.ImportRowResult {
	results := make([]models.ImportRowResult, 0, len(rows))
	seenPhones := map[string]int{}

	for i, row := range rows {
		// Header is row 1, data starts at row 2.
		res := models.ImportRowResult{RowNumber: i + 2, Valid: true}
		lead := &models.Lead{}

		for col, field := range columns {
			if field == "" || col >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[col])
			if value == "" {
				continue
			}

			switch field {
			case fieldPlayerName:
				lead.PlayerName = value
			case fieldParentName:
				lead.ParentName = models.NewNullString(value)
			case fieldPhone:
				normalized, err := s.phone.Validate(value)
				if err != nil {
					res.Errors = append(res.Errors, "phone")
				} else {
					lead.Phone = models.NewNullString(normalized)
				}
			case fieldEmail:
				if !strings.Contains(value, "@") {
					res.Errors = append(res.Errors, "email")
				} else {
					lead.Email = models.NewNullString(value)
				}
			case fieldDateOfBirth:
				dob, err := parseImportDate(value)
				if err != nil {
					res.Errors = append(res.Errors, "date_of_birth")
				} else {
					lead.DateOfBirth = models.NewNullTime(dob)
					lead.PlayerAgeCategory = models.NewNullString(funnel.AgeCategory(dob, time.Now()))
				}
			case fieldCenterID:
				lead.CenterID = models.NewNullString(value)
			case fieldSource:
				lead.Source = models.NewNullString(value)
			case fieldScore:
				if n, err := strconv.Atoi(value); err == nil && n >= 0 && n <= 5 {
					lead.Score = n
				} else {
					res.Errors = append(res.Errors, "score")
				}
			}
		}

		if lead.PlayerName == "" {
			res.Errors = append(res.Errors, "player_name")
		}
		if !lead.Phone.Valid {
			phoneFlagged := false
			for _, e := range res.Errors {
				if e == "phone" {
					phoneFlagged = true
					break
				}
			}
			if !phoneFlagged {
				res.Errors = append(res.Errors, "phone")
			}
		} else if firstRow, dup := seenPhones[lead.Phone.String]; dup {
			res.Errors = append(res.Errors, fmt.Sprintf("phone duplicates row %d", firstRow))
		} else {
			seenPhones[lead.Phone.String] = res.RowNumber
		}

		if len(res.Errors) > 0 {
			res.Valid = false
		} else {
			res.Lead = lead
		}
		results = append(results, res)
	}
	return results
}

// parseImportDate accepts the date spellings that show up in academy
// spreadsheets.
func parseImportDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// CommitResult summarizes what a commit did.
type CommitResult struct {
	LeadsAdded        int `json:"leads_added"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
	InvalidSkipped    int `json:"invalid_skipped"`
}

// Commit replays a previewed job and inserts its valid rows as New leads.
// Rows whose phone already exists in the database are skipped, not failed.
// A job commits at most once.
func (s *ImportService) Commit(jobID uuid.UUID) (*CommitResult, error) {
	job, err := s.importRepo.GetByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrNotFound
	}
	if job.Status != models.ImportPreview {
		return nil, fmt.Errorf("import job is %s and cannot be committed", job.Status)
	}

	var columns []string
	if err := json.Unmarshal([]byte(job.Mapping), &columns); err != nil {
		return nil, fmt.Errorf("failed to decode stored mapping: %w", err)
	}
	var rawRows [][]string
	if err := json.Unmarshal([]byte(job.RawRows), &rawRows); err != nil {
		return nil, fmt.Errorf("failed to decode stored rows: %w", err)
	}

	// Claim the job before writing leads so a concurrent commit inserts
	// nothing.
	ok, err := s.importRepo.MarkCommitted(jobID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("import job was already committed")
	}

	results := s.validateRows(rawRows, columns)

	out := &CommitResult{}
	for _, res := range results {
		if !res.Valid {
			out.InvalidSkipped++
			continue
		}

		existing, err := s.leadRepo.GetByPhone(res.Lead.Phone.String)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			out.DuplicatesSkipped++
			continue
		}

		if err := s.leadRepo.Create(res.Lead); err != nil {
			logrus.WithFields(logrus.Fields{
				"job_id": jobID,
				"row":    res.RowNumber,
				"error":  err.Error(),
			}).Error("failed to insert imported lead")
			out.InvalidSkipped++
			continue
		}
		out.LeadsAdded++
	}

	logrus.WithFields(logrus.Fields{
		"job_id":     jobID,
		"added":      out.LeadsAdded,
		"duplicates": out.DuplicatesSkipped,
		"invalid":    out.InvalidSkipped,
	}).Info("import committed")

	return out, nil
}

// ExpirePreviews sweeps preview jobs older than the retention window.
func (s *ImportService) ExpirePreviews(olderThan time.Duration) (int64, error) {
	return s.importRepo.ExpireOlderThan(time.Now().Add(-olderThan))
}
