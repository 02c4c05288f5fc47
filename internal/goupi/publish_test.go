package goupi_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"goupi/internal/goupi"
	"goupi/internal/testutil"
)

// recordingPublisher captures uploads in memory.
type recordingPublisher struct {
	validateErr error
	failKey     string
	objects     map[string]string
	types       map[string]string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{objects: map[string]string{}, types: map[string]string{}}
}

func (p *recordingPublisher) Name() string { return "recording" }

func (p *recordingPublisher) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if key == p.failKey {
		return errors.New("upload rejected")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	p.objects[key] = string(data)
	p.types[key] = contentType
	return nil
}

func (p *recordingPublisher) ValidateSetup(ctx context.Context) error { return p.validateErr }

func newPublishService(m *testutil.MockFilesystemManager) *goupi.SiteService {
	return goupi.NewSiteService(m, nil, nil, goupi.NewNopLogger(), testutil.FixedClock(), goupi.BuildOptions{})
}

func TestPublish(t *testing.T) {
	m := testutil.NewMockFilesystemManager()
	m.AddFile(filepath.Join(testOutput, "index.html"), []byte("<ul></ul>"))
	m.AddFile(filepath.Join(testOutput, "hello", "index.html"), []byte("<h1>Hi</h1>"))
	m.AddFile(filepath.Join(testOutput, "res", "style.css"), []byte("body{}"))
	m.AddFile(filepath.Join(testOutput, "hello", "res", "data.bin"), []byte{1, 2})

	pub := newRecordingPublisher()
	n, err := newPublishService(m).Publish(context.Background(), testOutput, pub)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if n != 4 {
		t.Errorf("Publish() = %d, want 4", n)
	}

	if pub.objects["hello/index.html"] != "<h1>Hi</h1>" {
		t.Errorf("hello/index.html = %q", pub.objects["hello/index.html"])
	}
	tests := []struct {
		key  string
		want string
	}{
		{"index.html", "text/html; charset=utf-8"},
		{"res/style.css", "text/css; charset=utf-8"},
		{"hello/res/data.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := pub.types[tt.key]; got != tt.want {
			t.Errorf("content type of %s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestPublish_ValidationFailure(t *testing.T) {
	m := testutil.NewMockFilesystemManager()
	m.AddFile(filepath.Join(testOutput, "index.html"), []byte("x"))

	pub := newRecordingPublisher()
	pub.validateErr = errors.New("bucket not found")

	n, err := newPublishService(m).Publish(context.Background(), testOutput, pub)
	if err == nil {
		t.Fatal("Publish() expected error")
	}
	if n != 0 || len(pub.objects) != 0 {
		t.Errorf("uploaded %d objects despite failed validation", len(pub.objects))
	}
}

func TestPublish_StopsAtFirstFailure(t *testing.T) {
	m := testutil.NewMockFilesystemManager()
	m.AddFile(filepath.Join(testOutput, "a.html"), []byte("a"))
	m.AddFile(filepath.Join(testOutput, "b.html"), []byte("b"))
	m.AddFile(filepath.Join(testOutput, "c.html"), []byte("c"))

	pub := newRecordingPublisher()
	pub.failKey = "b.html"

	n, err := newPublishService(m).Publish(context.Background(), testOutput, pub)
	if err == nil {
		t.Fatal("Publish() expected error")
	}
	if n != 1 {
		t.Errorf("Publish() = %d, want 1 before the failure", n)
	}
	if _, ok := pub.objects["c.html"]; ok {
		t.Error("upload continued after failure")
	}
}

func TestPublish_Cancelled(t *testing.T) {
	m := testutil.NewMockFilesystemManager()
	m.AddFile(filepath.Join(testOutput, "a.html"), []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPublishService(m).Publish(ctx, testOutput, newRecordingPublisher())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Publish() error = %v, want context.Canceled", err)
	}
}
