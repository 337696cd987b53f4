package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	name    string
	content []byte
	err     error
}

func (s *memoryStorage) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.name = name
	s.content = data
	return "https://files.example.com/" + name, nil
}

func newTestExportService(t *testing.T, storage FileStorage) *exportService {
	t.Helper()
	fixture := newReviewFixture(t)
	svc := NewExportService(fixture.submissions, fixture.users, storage, zerolog.Nop()).(*exportService)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC) }
	return svc
}

func TestExportRendersCSV(t *testing.T) {
	svc := newTestExportService(t, nil)

	result, err := svc.Export(context.Background())
	require.NoError(t, err)
	require.Equal(t, "probing-questions-20240601-083000.csv", result.FileName)
	require.Empty(t, result.Response.URL)
	require.Equal(t, 4, result.Response.Count)
	require.True(t, bytes.HasPrefix(result.Content, []byte("\xef\xbb\xbf")))

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(result.Content, []byte("\xef\xbb\xbf")))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	require.Equal(t, exportHeader, records[0])

	first := records[1]
	require.Equal(t, "s-linked", first[0])
	require.Equal(t, "Kim (Seoul High)", first[1])
	require.Equal(t, "2024-01-03T00:00:00Z", first[2])
	require.Equal(t, "면접관: Q1\n학생: A1\n면접관: Q2", first[6])
	require.Equal(t, "s1 -> ", first[7])

	last := records[4]
	require.Equal(t, "s-anon", last[0])
	require.Empty(t, last[2])
	require.Equal(t, "talkative", last[5])
}

func TestExportUploadsToStorage(t *testing.T) {
	storage := &memoryStorage{}
	svc := newTestExportService(t, storage)

	result, err := svc.Export(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://files.example.com/probing-questions-20240601-083000.csv", result.Response.URL)
	require.Equal(t, result.FileName, storage.name)
	require.Equal(t, result.Content, storage.content)
}

func TestExportStorageFailure(t *testing.T) {
	svc := newTestExportService(t, &memoryStorage{err: errors.New("bucket unavailable")})

	_, err := svc.Export(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "bucket unavailable")
}
