package feedback_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/essexfb/backend/feedback"
	"github.com/essexfb/backend/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSVFormat(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := feedback.NewStore(kvstore.NewMem(), feedback.WithClock(clock.Now))

	result, err := store.Append(ctx, feedback.Fields{
		LastName:    "O'Brien",
		UnitNumber:  "204",
		Topics:      "Noise, Elevator",
		Urgency:     "Routine",
		Subject:     `He said "stop"`,
		Comment:     "Quote: \"loud\" music",
		IsAnonymous: true,
		CopyPM:      false,
	})
	require.NoError(t, err)

	export, err := store.ExportCSV(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, export.Count)
	assert.Equal(t, "essex-feedback-2025-03-01.csv", export.Filename)

	content := string(export.Content)
	require.True(t, strings.HasPrefix(content, "\uFEFF"), "export must start with the UTF-8 BOM")
	content = strings.TrimPrefix(content, "\uFEFF")

	lines := strings.Split(content, "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"ID,Date Submitted,Last Name,Unit Number,Topics,Urgency,Subject,Comment,Anonymous,Copy PM",
		lines[0])

	expectedRow := fmt.Sprintf(
		`"%s","2025-03-01 10:30:00","O'Brien","204","Noise, Elevator","Routine","He said ""stop""","Quote: ""loud"" music","Yes","No"`,
		result.ID)
	assert.Equal(t, expectedRow, lines[1])
}

func TestExportCSVEmptyFieldsAreQuotedEmpty(t *testing.T) {
	ctx := context.Background()
	store := feedback.NewStore(kvstore.NewMem())

	_, err := store.Append(ctx, feedback.Fields{})
	require.NoError(t, err)

	export, err := store.ExportCSV(ctx)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimPrefix(string(export.Content), "\uFEFF"), "\r\n")
	require.Len(t, lines, 2)
	// id and date are always present, the six free-text fields render as ""
	assert.Contains(t, lines[1], `,"","","","","","","No","No"`)
}

func TestExportJSONLossless(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := feedback.NewStore(kvstore.NewMem(), feedback.WithClock(clock.Now))

	fields := feedback.Fields{
		LastName:   "Smith",
		UnitNumber: "101",
		Topics:     "Plumbing",
		Urgency:    "Urgent",
		Subject:    "Leak",
		Comment:    "Under the sink",
		Email:      "smith@example.com",
		CopyMe:     true,
		ButtonType: "Urgent Submit",
	}
	_, err := store.Append(ctx, fields)
	require.NoError(t, err)

	export, err := store.ExportJSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, export.Count)
	assert.Equal(t, "essex-feedback-backup-2025-03-01.json", export.Filename)

	var decoded []feedback.Submission
	require.NoError(t, json.Unmarshal(export.Content, &decoded))
	require.Len(t, decoded, 1)
	// fields the CSV export drops survive the backup
	assert.Equal(t, "smith@example.com", decoded[0].Email)
	assert.True(t, decoded[0].CopyMe)
	assert.Equal(t, "Urgent Submit", decoded[0].ButtonType)
}

func TestExportIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := feedback.NewStore(kvstore.NewMem(), feedback.WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, sampleFields(fmt.Sprintf("subject %d", i)))
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	csv1, err := store.ExportCSV(ctx)
	require.NoError(t, err)
	csv2, err := store.ExportCSV(ctx)
	require.NoError(t, err)
	assert.Equal(t, csv1.Content, csv2.Content)

	json1, err := store.ExportJSON(ctx)
	require.NoError(t, err)
	json2, err := store.ExportJSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, json1.Content, json2.Content)
}

func TestExportEmptyLog(t *testing.T) {
	ctx := context.Background()
	store := feedback.NewStore(kvstore.NewMem())

	csvExport, err := store.ExportCSV(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, csvExport.Count)
	assert.Empty(t, csvExport.Content)

	jsonExport, err := store.ExportJSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, jsonExport.Count)
	assert.Empty(t, jsonExport.Content)
}
