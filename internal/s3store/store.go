package s3store

import (
	"context"
	"errors"
	"io"
	"net/http"

	"filippo.io/age"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// Object is the metadata the store reports for a single key.
type Object struct {
	Key  string
	Size int64
	ETag string
}

// Listing is one page of a bucket listing. NextToken is nil on the
// last page.
type Listing struct {
	Objects        []Object
	CommonPrefixes []string
	NextToken      *string
}

// Store is the object store contract consumed by the inventory and
// engine packages. Implementations must be safe for concurrent use.
type Store interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	List(ctx context.Context, bucket, prefix string, token *string) (*Listing, error)
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error)
	Put(ctx context.Context, bucket, key string, source io.Reader) error
	Delete(ctx context.Context, bucket, key string) error
	Head(ctx context.Context, bucket, key string) (*Object, error)
}

type store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	recipients []age.Recipient
	identities []age.Identity
}

// New creates an S3-backed Store using the shared aws configuration
// for the named profile and region. The identities and recipients
// files are optional; pass empty strings to disable encryption.
func New(ctx context.Context, profile, region string, recipientsFile, identitiesFile string) (Store, error) {

	opts := []func(*config.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg)

	// load the encryption keys if they've been configured
	recipients, err := loadRecipients(recipientsFile)
	if err != nil {
		return nil, err
	}
	identities, err := loadIdentities(identitiesFile)
	if err != nil {
		return nil, err
	}

	st := store{
		client:     client,
		uploader:   manager.NewUploader(client),
		recipients: recipients,
		identities: identities,
	}

	return &st, nil
}

func (st *store) BucketExists(ctx context.Context, bucket string) (bool, error) {

	_, err := st.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return true, nil
	}

	var responseError *awshttp.ResponseError
	if errors.As(err, &responseError) && responseError.ResponseError.HTTPStatusCode() == http.StatusNotFound {
		return false, nil
	}

	return false, err
}

func (st *store) List(ctx context.Context, bucket, prefix string, token *string) (*Listing, error) {

	loi := s3.ListObjectsV2Input{
		Bucket:            aws.String(bucket),
		ContinuationToken: token,
	}
	if prefix != "" {
		loi.Prefix = aws.String(prefix)
	}

	resp, err := st.client.ListObjectsV2(ctx, &loi)
	if err != nil {
		return nil, err
	}

	listing := Listing{}
	for _, obj := range resp.Contents {
		listing.Objects = append(listing.Objects, Object{
			Key:  aws.ToString(obj.Key),
			Size: aws.ToInt64(obj.Size),
			ETag: aws.ToString(obj.ETag),
		})
	}
	for _, cp := range resp.CommonPrefixes {
		listing.CommonPrefixes = append(listing.CommonPrefixes, aws.ToString(cp.Prefix))
	}
	if aws.ToBool(resp.IsTruncated) {
		listing.NextToken = resp.NextContinuationToken
	}

	return &listing, nil
}

func (st *store) Head(ctx context.Context, bucket, key string) (*Object, error) {

	hoo, err := st.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var responseError *awshttp.ResponseError
		if errors.As(err, &responseError) && responseError.ResponseError.HTTPStatusCode() == http.StatusNotFound {
			return nil, &ErrNoSuchObject{key: key}
		}
		return nil, err
	}

	return &Object{
		Key:  key,
		Size: aws.ToInt64(hoo.ContentLength),
		ETag: aws.ToString(hoo.ETag),
	}, nil
}

func (st *store) Delete(ctx context.Context, bucket, key string) error {

	_, err := st.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.WithFields(log.Fields{"bucket": bucket, "key": key}).
			WithError(err).Error("delete failed")
	}
	return err
}
