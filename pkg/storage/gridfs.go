package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps blobs in a MongoDB GridFS bucket. The bucket name
// (default "uploads") and the metadata fields match the layout the notes front
// end historically read from, but files are keyed by UUID string ids rather
// than ObjectIds, so readers that look files up by ObjectId cannot open them.
// Documents with non-string ids are ignored by List.
type GridFSStore struct {
	client *mongo.Client
	bucket *gridfs.Bucket
}

type gridFSFile struct {
	ID         interface{} `bson:"_id"`
	Length     int64       `bson:"length"`
	UploadDate time.Time   `bson:"uploadDate"`
}

// NewGridFSStore connects to MongoDB and opens the named bucket.
func NewGridFSStore(ctx context.Context, uri, database, bucketName string) (*GridFSStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if bucketName == "" {
		bucketName = "uploads"
	}
	bucket, err := gridfs.NewBucket(client.Database(database), options.GridFSBucket().SetName(bucketName))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFSStore{client: client, bucket: bucket}, nil
}

// Put streams the payload into GridFS under key with owner metadata.
func (g *GridFSStore) Put(_ context.Context, key string, r io.Reader, _ int64, meta BlobMeta) error {
	if err := validKey(key); err != nil {
		return err
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "studentId", Value: meta.StudentID},
		{Key: "courseId", Value: meta.CourseID},
		{Key: "chapterId", Value: meta.ChapterID},
		{Key: "contentType", Value: meta.ContentType},
	})
	if err := g.bucket.UploadFromStreamWithID(key, meta.Filename, r, opts); err != nil {
		return fmt.Errorf("upload gridfs file: %w", err)
	}
	return nil
}

// Open returns a download stream for key.
func (g *GridFSStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	stream, err := g.bucket.OpenDownloadStream(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("open gridfs file: %w", err)
	}
	return stream, nil
}

// Delete removes the file document and its chunks.
func (g *GridFSStore) Delete(ctx context.Context, key string) error {
	if err := g.bucket.DeleteContext(ctx, key); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("delete gridfs file: %w", err)
	}
	return nil
}

// List enumerates the bucket's file documents.
func (g *GridFSStore) List(ctx context.Context) ([]BlobInfo, error) {
	cursor, err := g.bucket.FindContext(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find gridfs files: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	infos := make([]BlobInfo, 0)
	for cursor.Next(ctx) {
		info, ok, err := blobInfoFromRaw(cursor.Current)
		if err != nil {
			return nil, err
		}
		if ok {
			infos = append(infos, info)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate gridfs files: %w", err)
	}
	return infos, nil
}

// blobInfoFromRaw decodes one files document. It reports false for documents
// whose _id is not a string key.
func blobInfoFromRaw(raw bson.Raw) (BlobInfo, bool, error) {
	var file gridFSFile
	if err := bson.Unmarshal(raw, &file); err != nil {
		return BlobInfo{}, false, fmt.Errorf("decode gridfs file: %w", err)
	}
	key, ok := file.ID.(string)
	if !ok || key == "" {
		return BlobInfo{}, false, nil
	}
	return BlobInfo{Key: key, Size: file.Length, UploadedAt: file.UploadDate}, true, nil
}

// Disconnect closes the underlying Mongo client.
func (g *GridFSStore) Disconnect(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}
