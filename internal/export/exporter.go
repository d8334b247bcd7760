package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/callagent/internal/model"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

func (c S3Config) configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Config struct {
	Dir string
	S3  S3Config
	// BOM prefixes files with a UTF-8 byte order mark.
	BOM bool
}

// Exporter uploads to S3 when credentials are configured and writes to Dir
// otherwise.
type Exporter struct {
	cfg    Config
	client s3Client
	logger *slog.Logger
	now    func() time.Time
}

func NewExporter(cfg Config, logger *slog.Logger) *Exporter {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	e := &Exporter{
		cfg:    cfg,
		logger: logger.With("component", "export"),
		now:    time.Now,
	}
	if cfg.S3.configured() {
		e.client = newS3Client(cfg.S3)
	}
	return e
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Export writes calls and returns where they went, either a file path or an
// s3:// URL.
func (e *Exporter) Export(ctx context.Context, calls []model.Call) (string, error) {
	var buf bytes.Buffer
	if e.cfg.BOM {
		bw := WithBOM(&buf)
		if err := WriteCSV(bw, calls); err != nil {
			return "", err
		}
		if err := bw.Close(); err != nil {
			return "", fmt.Errorf("flush csv: %w", err)
		}
	} else if err := WriteCSV(&buf, calls); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s.csv", e.now().UTC().Format("2006-01-02T150405Z"))

	if e.client != nil {
		return e.upload(ctx, name, buf.Bytes(), len(calls))
	}

	dir := filepath.Join(e.cfg.Dir, "calls")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	e.logger.Info("calls exported", "path", path, "rows", len(calls))
	return path, nil
}

func (e *Exporter) upload(ctx context.Context, name string, data []byte, rows int) (string, error) {
	key := "calls/" + name
	if e.cfg.S3.Prefix != "" {
		key = e.cfg.S3.Prefix + "/" + key
	}

	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", e.cfg.S3.Bucket, key)
	e.logger.Info("calls exported", "location", location, "rows", rows)
	return location, nil
}
