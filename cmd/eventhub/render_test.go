package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

func TestWriteEventTable(t *testing.T) {
	events := []model.Event{
		{ID: "1", Title: "Jazz Night", Date: "2026-05-01", Category: "Music", Location: "Penang", Price: 50, MaxAttendees: 10, CurrentAttendees: 3},
		{ID: "2", Title: "Sold", Date: "2026-05-02", Category: "Music", Location: "Penang", MaxAttendees: 5, CurrentAttendees: 5},
	}
	var buf bytes.Buffer
	require.NoError(t, writeEventTable(&buf, events))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "RM50.00")
	assert.Contains(t, out, "7 left")
	assert.Contains(t, out, "sold out")
	assert.Contains(t, out, "Free")
}
