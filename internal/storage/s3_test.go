package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"foodshare/internal/keys"
	"foodshare/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type fakeObjectClient struct {
	bucketExists bool
	existsErr    error
	madeBucket   string
	statErr      error
	putErr       error
	puts         map[string][]byte
	putOpts      minio.PutObjectOptions
	listed       []minio.ObjectInfo
	listerDone   chan struct{}
}

func (f *fakeObjectClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return f.bucketExists, f.existsErr
}

func (f *fakeObjectClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	f.madeBucket = bucketName
	return nil
}

func (f *fakeObjectClient) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return minio.ObjectInfo{Key: objectName}, f.statErr
}

func (f *fakeObjectClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[objectName] = data
	f.putOpts = opts
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

func (f *fakeObjectClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeObjectClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	// Mirrors minio-go: an unbuffered channel fed until ctx is done.
	ch := make(chan minio.ObjectInfo)
	done := make(chan struct{})
	f.listerDone = done
	go func() {
		defer close(done)
		defer close(ch)
		for _, obj := range f.listed {
			select {
			case ch <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (f *fakeObjectClient) waitLister(t *testing.T) {
	t.Helper()
	select {
	case <-f.listerDone:
	case <-time.After(time.Second):
		t.Fatal("listing goroutine still blocked after return")
	}
}

func TestEnsureBucket(t *testing.T) {
	tests := []struct {
		name     string
		client   *fakeObjectClient
		wantMade string
		wantErr  bool
	}{
		{"existing bucket", &fakeObjectClient{bucketExists: true}, "", false},
		{"missing bucket", &fakeObjectClient{}, "posts", false},
		{"lookup error", &fakeObjectClient{existsErr: errors.New("denied")}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewS3StoreWithClient(tt.client, "posts", "us-east-1").EnsureBucket(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("EnsureBucket() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.client.madeBucket != tt.wantMade {
				t.Errorf("made bucket %q, want %q", tt.client.madeBucket, tt.wantMade)
			}
		})
	}
}

func TestInsert(t *testing.T) {
	post := samplePost(t, time.Now())
	key := keys.FoodPost(post)

	tests := []struct {
		name    string
		statErr error
		wantErr error
		stored  bool
	}{
		{"new object", minio.ErrorResponse{Code: "NoSuchKey"}, nil, true},
		{"existing object", nil, ErrExists, false},
		{"stat failure", errors.New("network down"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeObjectClient{statErr: tt.statErr}
			err := NewS3StoreWithClient(client, "posts", "").Insert(context.Background(), post)

			switch {
			case tt.stored && err != nil:
				t.Fatalf("Insert() unexpected error: %v", err)
			case tt.wantErr != nil && !errors.Is(err, tt.wantErr):
				t.Fatalf("Insert() error = %v, want %v", err, tt.wantErr)
			case !tt.stored && err == nil:
				t.Fatalf("Insert() expected an error")
			}
			if _, ok := client.puts[key]; ok != tt.stored {
				t.Errorf("object stored = %v, want %v", ok, tt.stored)
			}
		})
	}
}

func TestSaveWritesJSON(t *testing.T) {
	now := time.Now()
	post := samplePost(t, now)
	post.Deactivate(now.Add(time.Minute))

	client := &fakeObjectClient{}
	if err := NewS3StoreWithClient(client, "posts", "").Save(context.Background(), post); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, ok := client.puts[keys.FoodPost(post)]
	if !ok {
		t.Fatalf("no object written under %s", keys.FoodPost(post))
	}
	if client.putOpts.ContentType != "application/json" {
		t.Errorf("content type = %q", client.putOpts.ContentType)
	}

	var stored models.FoodPost
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("stored object is not JSON: %v", err)
	}
	if stored.ID != post.ID || stored.IsActive {
		t.Errorf("unexpected stored post: %+v", stored)
	}
}

func TestSavePutFailure(t *testing.T) {
	client := &fakeObjectClient{putErr: errors.New("quota exceeded")}
	if err := NewS3StoreWithClient(client, "posts", "").Save(context.Background(), samplePost(t, time.Now())); err == nil {
		t.Fatal("expected put failure")
	}
}

func TestFindUnknownPost(t *testing.T) {
	client := &fakeObjectClient{listed: []minio.ObjectInfo{
		{Key: keys.Post("user-1", uuid.New())},
		{Key: "posts/readme.txt"},
	}}

	_, err := NewS3StoreWithClient(client, "posts", "").Find(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find() error = %v, want ErrNotFound", err)
	}
}

func TestListPropagatesListingError(t *testing.T) {
	client := &fakeObjectClient{listed: []minio.ObjectInfo{{Err: errors.New("access denied")}}}
	if _, err := NewS3StoreWithClient(client, "posts", "").List(context.Background()); err == nil {
		t.Fatal("expected listing error")
	}
}

func TestListingStopsWhenReturningEarly(t *testing.T) {
	id := uuid.New()
	tail := []minio.ObjectInfo{{Key: "posts/user-2/a.json"}, {Key: "posts/user-2/b.json"}}

	t.Run("find match", func(t *testing.T) {
		client := &fakeObjectClient{listed: append([]minio.ObjectInfo{{Key: keys.Post("user-1", id)}}, tail...)}
		_, _ = NewS3StoreWithClient(client, "posts", "").Find(context.Background(), id)
		client.waitLister(t)
	})

	t.Run("list error", func(t *testing.T) {
		client := &fakeObjectClient{listed: append([]minio.ObjectInfo{{Err: errors.New("access denied")}}, tail...)}
		if _, err := NewS3StoreWithClient(client, "posts", "").List(context.Background()); err == nil {
			t.Fatal("expected listing error")
		}
		client.waitLister(t)
	})
}

func TestNewS3StoreRequiresSettings(t *testing.T) {
	if _, err := NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "posts"}); err == nil {
		t.Fatal("expected missing credentials error")
	}
	if _, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}); err == nil {
		t.Fatal("expected missing bucket error")
	}
}
