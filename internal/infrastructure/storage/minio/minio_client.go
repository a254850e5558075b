package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/openeeap/replytune/internal/infrastructure/storage"
	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/pkg/errors"
)

const snapshotContentType = "application/json"

// MinIOConfig MinIO 配置
type MinIOConfig struct {
	Endpoint        string        // 服务端点
	AccessKeyID     string        // 访问密钥ID
	SecretAccessKey string        // 访问密钥
	UseSSL          bool          // 是否使用SSL
	Region          string        // 区域
	Bucket          string        // 快照存储桶
	Timeout         time.Duration // 超时时间
}

// SnapshotSink MinIO 快照存储：<bucket>/<name>/policy.json
type SnapshotSink struct {
	client *minio.Client
	config *MinIOConfig
	logger logging.Logger
}

// NewSnapshotSink 创建 MinIO 快照存储并检查连接
func NewSnapshotSink(ctx context.Context, config *MinIOConfig, logger logging.Logger) (*SnapshotSink, error) {
	if config == nil || config.Endpoint == "" || config.Bucket == "" {
		return nil, errors.NewFromCodef(errors.ErrSysConfigurationError, "minio endpoint and bucket are required")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrSysConfigurationError, "failed to create minio client")
	}

	s := &SnapshotSink{client: client, config: config, logger: logger}

	pingCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureBucket 存储桶不存在时创建
func (s *SnapshotSink) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.config.Bucket)
	if err != nil {
		return errors.WrapFromCode(err, errors.ErrStorageUploadFailed)
	}
	if exists {
		return nil
	}

	err = s.client.MakeBucket(ctx, s.config.Bucket, minio.MakeBucketOptions{Region: s.config.Region})
	if err != nil {
		// 并发创建时桶可能已存在
		if resp := minio.ToErrorResponse(err); resp.Code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return errors.WrapFromCode(err, errors.ErrStorageUploadFailed)
	}

	s.logger.WithContext(ctx).Info("bucket created", logging.String("bucket", s.config.Bucket))
	return nil
}

// Save 上传快照
func (s *SnapshotSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := storage.ValidateName(name); err != nil {
		return "", err
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return "", err
	}

	key := storage.ObjectKey(name)
	info, err := s.client.PutObject(ctx, s.config.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  snapshotContentType,
			UserMetadata: map[string]string{"snapshot-name": name},
		})
	if err != nil {
		return "", errors.WrapFromCode(err, errors.ErrStorageUploadFailed)
	}

	location := fmt.Sprintf("s3://%s/%s", s.config.Bucket, key)
	s.logger.WithContext(ctx).Info("snapshot uploaded",
		logging.String("location", location),
		logging.String("etag", info.ETag),
		logging.Int64("bytes", info.Size),
	)
	return location, nil
}

// Load 下载快照
func (s *SnapshotSink) Load(ctx context.Context, name string) ([]byte, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	object, err := s.client.GetObject(ctx, s.config.Bucket, storage.ObjectKey(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapReadError(err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, s.wrapReadError(err)
	}
	return data, nil
}

// Ping 健康检查
func (s *SnapshotSink) Ping(ctx context.Context) error {
	// 通过列出存储桶来检查连接状态
	if _, err := s.client.ListBuckets(ctx); err != nil {
		return errors.WrapFromCode(err, errors.ErrSysConfigurationError, "minio connection check failed")
	}
	return nil
}

func (s *SnapshotSink) wrapReadError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.WrapFromCode(err, errors.ErrStorageNotFound)
	default:
		return errors.WrapFromCode(err, errors.ErrSysInternalError)
	}
}

//Personal.AI order the ending
