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
	"sync"

	"github.com/defsub/reel/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioBucket struct {
	config config.BucketConfig
	client *minio.Client
	mu     sync.Mutex
	ready  bool
}

func OpenMinio(config config.BucketConfig) (*MinioBucket, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, err
	}
	return &MinioBucket{config: config, client: client}, nil
}

// ensure creates the bucket on first use.
func (b *MinioBucket) ensure(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready {
		return nil
	}
	exists, err := b.client.BucketExists(ctx, b.config.BucketName)
	if err != nil {
		return err
	}
	if !exists {
		err = b.client.MakeBucket(ctx, b.config.BucketName,
			minio.MakeBucketOptions{Region: b.config.Region})
		if err != nil {
			return err
		}
	}
	b.ready = true
	return nil
}

func (b *MinioBucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := b.ensure(ctx); err != nil {
		return err
	}
	_, err := b.client.PutObject(ctx, b.config.BucketName, objectKey(b.config, key),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (b *MinioBucket) URL(ctx context.Context, key string) (string, error) {
	if b.config.PublicURL != "" {
		return publicURL(b.config, objectKey(b.config, key)), nil
	}
	u, err := b.client.PresignedGetObject(ctx, b.config.BucketName, objectKey(b.config, key),
		b.config.URLExpiration, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
