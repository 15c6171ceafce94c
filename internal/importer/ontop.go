// Package importer reads contractor rosters exported from Ontop.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/models"
)

// MaxUploadBytes caps the size of an uploaded roster.
const MaxUploadBytes = 10 * 1024 * 1024

const (
	headerMarker = "unit of payment"
	hourlyUnit   = "per hour"
	unknownValue = "Unknown"
)

var (
	ErrHeaderNotFound  = errors.New(`header row with "Unit of payment" not found`)
	ErrNoHourlyWorkers = errors.New("no valid hourly workers found")
	ErrTooLarge        = errors.New("roster exceeds the upload limit")
)

var invalidIDChars = regexp.MustCompile(`[^\w-]`)

// Column positions used when a header cannot be matched by name.
var defaultColumns = columns{id: 0, name: 3, email: 4, unit: 12}

type columns struct {
	id, name, email, unit int
}

func (c columns) width() int {
	return max(c.id, c.name, c.email, c.unit) + 1
}

// Skipped is a data row that did not become a worker.
type Skipped struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type Result struct {
	Workers []models.Worker `json:"workers"`
	Skipped []Skipped       `json:"skipped,omitempty"`
}

// ParseOntop extracts the hourly contractors of an Ontop CSV export. Every
// worker gets a token from newToken, starts inactive and in clock mode.
func ParseOntop(r io.Reader, newToken func() (string, error)) (Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Result{}, apperrors.Wrap(err, "read roster")
	}
	if len(data) > MaxUploadBytes {
		return Result{}, apperrors.NewAppError(apperrors.ErrTooLarge, "roster is larger than 10MB", ErrTooLarge)
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var (
		res       Result
		cols      columns
		headerSet bool
		seen      = map[string]struct{}{}
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, apperrors.NewAppError(apperrors.ErrInvalidArgument, "malformed CSV", err)
		}
		line, _ := reader.FieldPos(0)

		if !headerSet {
			if isHeader(record) {
				cols = mapColumns(record)
				headerSet = true
			}
			continue
		}
		if blank(record) {
			continue
		}
		if len(record) < cols.width() {
			res.Skipped = append(res.Skipped, Skipped{Line: line, Reason: "incomplete row"})
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(record[cols.unit]), hourlyUnit) {
			continue
		}

		rawID := strings.TrimSpace(record[cols.id])
		name := strings.TrimSpace(record[cols.name])
		email := strings.TrimSpace(record[cols.email])
		if rawID == "" || name == "" || rawID == unknownValue || name == unknownValue {
			res.Skipped = append(res.Skipped, Skipped{Line: line, Reason: "missing contractor id or name"})
			continue
		}
		id := invalidIDChars.ReplaceAllString(rawID, "")
		if id == "" {
			res.Skipped = append(res.Skipped, Skipped{Line: line, Reason: fmt.Sprintf("invalid contractor id %q", rawID)})
			continue
		}
		if _, dup := seen[id]; dup {
			res.Skipped = append(res.Skipped, Skipped{Line: line, Reason: fmt.Sprintf("duplicate contractor id %s", id)})
			continue
		}

		token, err := newToken()
		if err != nil {
			return Result{}, apperrors.Wrap(err, "generate invite token")
		}
		seen[id] = struct{}{}
		res.Workers = append(res.Workers, models.Worker{
			ContractorID: id,
			Name:         name,
			Email:        email,
			InviteToken:  token,
			IsActive:     false,
			TrackingMode: models.TrackingClock,
		})
	}

	if !headerSet {
		return Result{}, apperrors.NewAppError(apperrors.ErrInvalidArgument, "invalid roster", ErrHeaderNotFound)
	}
	if len(res.Workers) == 0 {
		return Result{}, apperrors.NewAppError(apperrors.ErrInvalidArgument, "invalid roster", ErrNoHourlyWorkers)
	}
	return res, nil
}

func isHeader(record []string) bool {
	return strings.Contains(strings.ToLower(strings.Join(record, ",")), headerMarker)
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// mapColumns finds the roster columns by header name, falling back to the
// standard Ontop positions for any it cannot find.
func mapColumns(header []string) columns {
	c := columns{id: -1, name: -1, email: -1, unit: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "contractor id":
			c.id = i
		case "name", "full name", "contractor name":
			c.name = i
		case "email", "e-mail", "email address":
			c.email = i
		case headerMarker:
			c.unit = i
		}
	}
	if c.id < 0 {
		c.id = defaultColumns.id
	}
	if c.name < 0 {
		c.name = defaultColumns.name
	}
	if c.email < 0 {
		c.email = defaultColumns.email
	}
	if c.unit < 0 {
		c.unit = defaultColumns.unit
	}
	return c
}
