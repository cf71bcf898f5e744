package s3store

import (
	"context"
	"errors"
	"io"
	"strings"

	"filippo.io/age"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const metaEncrypt = "s3sync-encrypt"

func (st *store) Put(ctx context.Context, bucket, key string, source io.Reader) error {

	mdata := make(map[string]string)

	// insert the encrypter - it's a writer but we need a reader
	//   so use an io.Pipe with goroutine
	if len(st.recipients) > 0 {
		mdata[metaEncrypt] = "age"

		reader, writer := io.Pipe()
		defer reader.Close()

		go func(writer *io.PipeWriter, source io.Reader) {
			ewriter, err := age.Encrypt(writer, st.recipients...)
			if err != nil {
				writer.CloseWithError(err)
				return
			}

			_, err = io.Copy(ewriter, source)

			ewriter.Close()
			if err != nil {
				writer.CloseWithError(err)
			} else {
				writer.Close()
			}

		}(writer, source)

		source = reader
	}

	// can't use the simple PutObject method because the ContentLength
	// isn't known once encryption is in play, so use an Uploader

	_, err := st.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		Body:     source,
		Metadata: mdata,
	})

	return err
}

func (st *store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {

	resp, err := st.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nosuchkey *types.NoSuchKey
		if errors.As(err, &nosuchkey) {
			return nil, 0, &ErrNoSuchObject{key: key}
		}
		return nil, 0, err
	}

	length := aws.ToInt64(resp.ContentLength)

	// check the metadata to see if decryption is needed
	encrypted := false
	for k := range resp.Metadata {
		if strings.ToLower(k) == metaEncrypt {
			encrypted = true
		}
	}

	if !encrypted {
		return resp.Body, length, nil
	}

	if len(st.identities) == 0 {
		resp.Body.Close()
		return nil, 0, &ErrIdentitiesNotFound{}
	}

	dreader, err := age.Decrypt(resp.Body, st.identities...)
	if err != nil {
		resp.Body.Close()
		return nil, 0, err
	}

	// the plaintext length isn't known up front for encrypted objects
	return &decryptReader{reader: dreader, closer: resp.Body}, 0, nil
}

type decryptReader struct {
	reader io.Reader
	closer io.Closer
}

func (dr *decryptReader) Read(p []byte) (int, error) {
	return dr.reader.Read(p)
}

func (dr *decryptReader) Close() error {
	return dr.closer.Close()
}
