package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/storage"
)

type memoryUploader struct {
	objects map[string][]byte
}

func (u *memoryUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://files.example.com/" + key
}

func TestExportWorkbookAndPublish(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 4)
	h.newGroup(t, ev, models.SystemRoundRobin, entrants, GenerateOptions{})
	_, err := h.schedule.ScheduleEvent(ctx, organizer, ev.ID, ScheduleOptions{})
	require.NoError(t, err)

	exporter := NewExportService(h.events, h.participants, h.groups, h.schedule, nil, discardLogger())
	data, name, err := exporter.Workbook(ctx, organizer, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "program-"+ev.ID+".xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"06.06.2026"}, f.GetSheetList())
	rows, err := f.GetRows("06.06.2026")
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "09:00", rows[1][0])
	assert.Equal(t, "Grup A", rows[1][3])
	p1, err := h.participants.GetByID(ctx, "p1")
	require.NoError(t, err)
	var found bool
	for _, r := range rows[1:] {
		found = found || r[5] == p1.Name || r[6] == p1.Name
	}
	assert.True(t, found, "sides are written by name")

	_, err = exporter.Publish(ctx, organizer, ev.ID)
	assert.ErrorIs(t, err, ErrExportNotAvailable)
	_, _, err = exporter.Workbook(ctx, player("u1"), ev.ID)
	assert.ErrorIs(t, err, ErrOrganizerOnly)

	uploader := &memoryUploader{}
	exporter = NewExportService(h.events, h.participants, h.groups, h.schedule, uploader, discardLogger())
	pub, err := exporter.Publish(ctx, organizer, ev.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pub.Key, "schedules/"+ev.ID+"/"))
	assert.Equal(t, uploader.GetPublicURL(pub.Key), pub.URL)
	assert.NotEmpty(t, uploader.objects[pub.Key])
}
