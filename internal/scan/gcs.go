package scan

import (
	"context"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"dupescan/internal/types"
)

// GCS scans a Cloud Storage bucket prefix, mapping each object to a file
// record.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSClient builds a storage client. With an empty credentials path it
// falls back to Application Default Credentials.
func NewGCSClient(ctx context.Context, credsFile string) (*storage.Client, error) {
	if credsFile != "" {
		return storage.NewClient(ctx, option.WithCredentialsFile(credsFile))
	}
	return storage.NewClient(ctx)
}

// NewGCS creates a scanner over one bucket prefix.
func NewGCS(client *storage.Client, bucket, prefix string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *GCS) List(ctx context.Context, token string, pageSize int) (*Page, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.prefix})

	if pageSize < 1 {
		pageSize = 1000
	}
	pager := iterator.NewPager(it, pageSize, token)

	var attrs []*storage.ObjectAttrs
	next, err := pager.NextPage(&attrs)
	if err != nil {
		return nil, &types.ScanError{Source: "gcs://" + g.bucket, Err: err}
	}

	page := &Page{NextToken: next}
	for _, a := range attrs {
		// Folder placeholders carry no content.
		if a.Name == "" || a.Name[len(a.Name)-1] == '/' {
			continue
		}
		rec := objectToRecord(a, g.bucket)
		Enhance(&rec)
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

// objectToRecord maps object attributes onto the record schema. The object
// path is the stable identifier; perceptual hashes, when present, arrive
// through object metadata written at upload time.
func objectToRecord(a *storage.ObjectAttrs, bucket string) types.FileRecord {
	rec := types.FileRecord{
		ID:         a.Name,
		Name:       path.Base(a.Name),
		Size:       a.Size,
		MimeType:   a.ContentType,
		CreatedAt:  a.Created.UTC(),
		ModifiedAt: a.Updated.UTC(),
		Extra: map[string]string{
			"bucket":     bucket,
			"source_url": fmt.Sprintf("gs://%s/%s", bucket, a.Name),
		},
	}
	if a.Owner != "" {
		rec.OwnerEmail = a.Owner
	}
	if len(a.MD5) > 0 {
		rec.Hashes = map[string]string{"md5": fmt.Sprintf("%x", a.MD5)}
	}

	for key, value := range a.Metadata {
		switch key {
		case "sha256", "sha1":
			if rec.Hashes == nil {
				rec.Hashes = make(map[string]string)
			}
			rec.Hashes[key] = value
		case "phash", "ahash", "dhash", "whash":
			if rec.ImageHashes == nil {
				rec.ImageHashes = make(map[string]string)
			}
			rec.ImageHashes[key] = value
		case "owner_name":
			rec.OwnerName = value
		case "shared":
			rec.Shared = value == "true"
		default:
			rec.Extra[key] = value
		}
	}
	if rec.ModifiedAt.IsZero() {
		rec.ModifiedAt = time.Now().UTC()
	}
	return rec
}
