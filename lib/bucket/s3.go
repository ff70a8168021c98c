// Copyright (C) 2026 The Reel Authors.
//
// This file is part of Reel.
//
// Reel is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Reel is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Reel.  If not, see <https://www.gnu.org/licenses/>.

package bucket

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/defsub/reel/config"
)

type S3Bucket struct {
	config config.BucketConfig
	s3     *s3.S3
}

// OpenS3 connects to the configured S3 bucket.
// Tested: Wasabi, Backblaze, Minio
func OpenS3(config config.BucketConfig) (*S3Bucket, error) {
	creds := credentials.NewStaticCredentials(
		config.AccessKeyID,
		config.SecretAccessKey, "")
	s3Config := &aws.Config{
		Credentials:      creds,
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(true)}
	if config.Endpoint != "" {
		s3Config.Endpoint = aws.String(config.Endpoint)
	}
	session, err := session.NewSession(s3Config)
	if err != nil {
		return nil, err
	}
	return &S3Bucket{s3: s3.New(session), config: config}, nil
}

func (b *S3Bucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := b.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.config.BucketName),
		Key:         aws.String(objectKey(b.config, key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}

func (b *S3Bucket) URL(ctx context.Context, key string) (string, error) {
	if b.config.PublicURL != "" {
		return publicURL(b.config, objectKey(b.config, key)), nil
	}
	return b.Presign(key)
}

// Presign generates a url which expires based on config settings.
func (b *S3Bucket) Presign(key string) (string, error) {
	req, _ := b.s3.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(b.config.BucketName),
		Key:    aws.String(objectKey(b.config, key))})
	return req.Presign(b.config.URLExpiration)
}
