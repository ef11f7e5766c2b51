package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"foodshare/internal/keys"
	"foodshare/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrExists   = errors.New("post already stored")
	ErrNotFound = errors.New("post not found")
)

// S3Config holds the MinIO endpoint and the bucket posts live in.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
}

// ObjectClient is the subset of *minio.Client the store needs.
type ObjectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// S3Store keeps one JSON document per post in an S3-compatible bucket.
type S3Store struct {
	client ObjectClient
	bucket string
	region string
}

// NewS3Store connects to the MinIO endpoint described by cfg.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing one or more required settings: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("missing bucket name")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	log.Println("Connected to MinIO endpoint:", cfg.Endpoint)
	return NewS3StoreWithClient(minioClient, cfg.Bucket, cfg.Region), nil
}

func NewS3StoreWithClient(client ObjectClient, bucket, region string) *S3Store {
	return &S3Store{client: client, bucket: bucket, region: region}
}

func (s *S3Store) Bucket() string { return s.bucket }

// EnsureBucket creates the bucket if it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("error creating bucket %s: %w", s.bucket, err)
	}
	log.Printf("Created bucket %s", s.bucket)
	return nil
}

// Insert stores a new post. It never overwrites an existing object.
func (s *S3Store) Insert(ctx context.Context, post models.FoodPost) error {
	objectKey := keys.FoodPost(post)

	_, err := s.client.StatObject(ctx, s.bucket, objectKey, minio.StatObjectOptions{})
	if err == nil {
		return fmt.Errorf("%w: %s", ErrExists, objectKey)
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to check for existing object: %w", err)
	}
	return s.put(ctx, objectKey, post)
}

// Save overwrites the stored copy of a post.
func (s *S3Store) Save(ctx context.Context, post models.FoodPost) error {
	return s.put(ctx, keys.FoodPost(post), post)
}

func (s *S3Store) put(ctx context.Context, objectKey string, post models.FoodPost) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal post to JSON: %w", err)
	}

	_, err = s.client.PutObject(
		ctx,
		s.bucket,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}

	log.Printf("Stored post %s in bucket '%s' with key '%s'", post.ID, s.bucket, objectKey)
	return nil
}

// GetObject loads a post by bucket and key, as referenced by a bucket
// notification.
func (s *S3Store) GetObject(ctx context.Context, bucketName, objectKey string) (*models.FoodPost, error) {
	object, err := s.client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	var post models.FoodPost
	if err := json.NewDecoder(object).Decode(&post); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, objectKey)
		}
		return nil, fmt.Errorf("failed to decode JSON from stream: %w", err)
	}
	return &post, nil
}

// Get loads a post by owner and id.
func (s *S3Store) Get(ctx context.Context, userID string, id uuid.UUID) (*models.FoodPost, error) {
	return s.GetObject(ctx, s.bucket, keys.Post(userID, id))
}

// Find loads a post by id alone, scanning the post prefix.
func (s *S3Store) Find(ctx context.Context, id uuid.UUID) (*models.FoodPost, error) {
	// Stops the lister goroutine when we return before draining the listing.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: keys.PostPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list posts: %w", obj.Err)
		}
		if postID, err := keys.PostID(obj.Key); err == nil && postID == id {
			return s.GetObject(ctx, s.bucket, obj.Key)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List loads every stored post.
func (s *S3Store) List(ctx context.Context) ([]models.FoodPost, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var posts []models.FoodPost
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: keys.PostPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list posts: %w", obj.Err)
		}
		post, err := s.GetObject(ctx, s.bucket, obj.Key)
		if err != nil {
			log.Printf("Skipping unreadable post object %s: %v", obj.Key, err)
			continue
		}
		posts = append(posts, *post)
	}
	return posts, nil
}
