package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/callagent/internal/model"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	if input.ContentType != nil {
		m.types[*input.Key] = *input.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

var fixedNow = time.Date(2026, 3, 2, 14, 5, 9, 0, time.UTC)

func sampleCalls() []model.Call {
	return []model.Call{
		{ID: "c1", OrganizationID: "org-1", PhoneNumber: "+15550001", Direction: "inbound", Status: "completed",
			Duration: 125, StartedAt: fixedNow, Summary: "Booked a cleaning, asked about \"whitening\""},
		{ID: "c2", OrganizationID: "org-1", PhoneNumber: "+15550002", Direction: "outbound", Status: "failed"},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleCalls()); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][2] != "2026-03-02T14:05:09Z" || rows[1][7] != "125" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[1][9] != `Booked a cleaning, asked about "whitening"` {
		t.Errorf("summary = %q", rows[1][9])
	}
	if rows[2][2] != "" {
		t.Errorf("zero start time should be empty, got %q", rows[2][2])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("expected header only, got %d lines", got)
	}
}

func TestExportLocal(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(Config{Dir: dir}, slog.Default())
	e.now = func() time.Time { return fixedNow }

	path, err := e.Export(context.Background(), sampleCalls())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := filepath.Join(dir, "calls", "2026-03-02T140509Z.csv")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "id,organization_id,") {
		t.Errorf("unexpected content: %q", data[:20])
	}
}

func TestExportBOM(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(Config{Dir: dir, BOM: true}, slog.Default())
	e.now = func() time.Time { return fixedNow }

	path, err := e.Export(context.Background(), sampleCalls())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !bytes.HasPrefix(data, []byte("\xef\xbb\xbfid,")) {
		t.Errorf("missing BOM: % x", data[:6])
	}
}

func TestExportS3(t *testing.T) {
	mock := newMockS3()
	e := NewExporter(Config{S3: S3Config{Bucket: "exports", Prefix: "acme"}}, slog.Default())
	e.client = mock
	e.now = func() time.Time { return fixedNow }

	location, err := e.Export(context.Background(), sampleCalls())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if location != "s3://exports/acme/calls/2026-03-02T140509Z.csv" {
		t.Errorf("location = %q", location)
	}
	data, ok := mock.objects["acme/calls/2026-03-02T140509Z.csv"]
	if !ok {
		t.Fatalf("object not uploaded; have %v", mock.objects)
	}
	if !bytes.Contains(data, []byte("c2,org-1")) {
		t.Errorf("uploaded content = %q", data)
	}
	if mock.types["acme/calls/2026-03-02T140509Z.csv"] != "text/csv" {
		t.Error("content type not set")
	}
}

func TestExportS3Error(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("access denied")
	e := NewExporter(Config{}, slog.Default())
	e.client = mock

	if _, err := e.Export(context.Background(), sampleCalls()); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestNewExporterS3Configured(t *testing.T) {
	e := NewExporter(Config{S3: S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s", Region: "auto"}}, slog.Default())
	if e.client == nil {
		t.Error("expected S3 client when credentials are set")
	}
	e = NewExporter(Config{S3: S3Config{Bucket: "b"}}, slog.Default())
	if e.client != nil {
		t.Error("expected no S3 client without credentials")
	}
}
