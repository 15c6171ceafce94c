package importer

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highercomve/timesheets/internal/apperrors"
	"github.com/highercomve/timesheets/internal/models"
)

func counterTokens() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("TOKEN-%d", n), nil
	}
}

const positionalRoster = `Ontop contractors export
Generated 2024-03-01,,,,,,,,,,,,
ID,Ref,Type,Full legal name,Mail,Country,Start,End,Currency,Rate,Frequency,Status,Unit of payment
ct-001,R1,PF,Ana Lopez,ana@example.com,MX,,,USD,20,monthly,active,Per hour
ct-002,R2,PF,Ben Ortiz,ben@example.com,CO,,,USD,3000,monthly,active,Per month
ct 003!,R3,PF,"Cy, Jr.",cy@example.com,AR,,,USD,25,monthly,active,per hour
ct-001,R4,PF,Ana Again,ana2@example.com,MX,,,USD,20,monthly,active,per hour
Unknown,R5,PF,Nobody,no@example.com,MX,,,USD,20,monthly,active,per hour
ct-006,R6,PF,Short row
,,,,,,,,,,,,
`

func TestParseOntopPositional(t *testing.T) {
	res, err := ParseOntop(strings.NewReader(positionalRoster), counterTokens())
	require.NoError(t, err)

	require.Len(t, res.Workers, 2)
	assert.Equal(t, models.Worker{
		ContractorID: "ct-001",
		Name:         "Ana Lopez",
		Email:        "ana@example.com",
		InviteToken:  "TOKEN-1",
		IsActive:     false,
		TrackingMode: models.TrackingClock,
	}, res.Workers[0])
	assert.Equal(t, "ct003", res.Workers[1].ContractorID)
	assert.Equal(t, "Cy, Jr.", res.Workers[1].Name)

	reasons := []string{}
	for _, s := range res.Skipped {
		reasons = append(reasons, s.Reason)
	}
	assert.Equal(t, []string{
		"duplicate contractor id ct-001",
		"missing contractor id or name",
		"incomplete row",
	}, reasons)
	assert.Equal(t, 7, res.Skipped[0].Line)
}

func TestParseOntopNamedColumns(t *testing.T) {
	roster := "Unit of payment,Email,Name,Contractor ID\r\n" +
		"per hour,dee@example.com,Dee,ct-9\r\n"
	res, err := ParseOntop(strings.NewReader("\xef\xbb\xbf"+roster), counterTokens())
	require.NoError(t, err)
	require.Len(t, res.Workers, 1)
	assert.Equal(t, "ct-9", res.Workers[0].ContractorID)
	assert.Equal(t, "Dee", res.Workers[0].Name)
	assert.Equal(t, "dee@example.com", res.Workers[0].Email)
}

func TestParseOntopErrors(t *testing.T) {
	_, err := ParseOntop(strings.NewReader("a,b,c\n1,2,3\n"), counterTokens())
	assert.ErrorIs(t, err, ErrHeaderNotFound)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArgument))

	onlyMonthly := "ID,Ref,Type,Name,Mail,C,S,E,Cur,Rate,F,St,Unit of payment\n" +
		"ct-1,R,PF,Ana,a@example.com,MX,,,USD,1,m,a,per month\n"
	_, err = ParseOntop(strings.NewReader(onlyMonthly), counterTokens())
	assert.ErrorIs(t, err, ErrNoHourlyWorkers)

	big := strings.NewReader(strings.Repeat("x", MaxUploadBytes+1))
	_, err = ParseOntop(big, counterTokens())
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrTooLarge))

	failing := func() (string, error) { return "", errors.New("no entropy") }
	_, err = ParseOntop(strings.NewReader(positionalRoster), failing)
	assert.Error(t, err)
}
