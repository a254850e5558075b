package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/pkg/errors"
)

// LocalSink 本地目录快照存储：<base>/<name>/policy.json
type LocalSink struct {
	basePath string
	logger   logging.Logger
}

// NewLocalSink 创建本地存储
func NewLocalSink(basePath string, logger logging.Logger) *LocalSink {
	return &LocalSink{basePath: basePath, logger: logger}
}

// Save 原子写入快照，先写临时文件再重命名
func (s *LocalSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	dir := filepath.Join(s.basePath, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.WrapFromCode(err, errors.ErrStorageUploadFailed)
	}

	target := filepath.Join(dir, SnapshotFileName)
	tmp, err := os.CreateTemp(dir, ".policy-*.json")
	if err != nil {
		return "", errors.WrapFromCode(err, errors.ErrStorageUploadFailed)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", errors.WrapFromCode(err, errors.ErrStorageUploadFailed)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.WrapFromCode(err, errors.ErrStorageUploadFailed)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", errors.WrapFromCode(err, errors.ErrStorageUploadFailed)
	}

	s.logger.WithContext(ctx).Info("snapshot saved",
		logging.String("name", name),
		logging.String("path", target),
		logging.Int("bytes", len(data)),
	)
	return target, nil
}

// Load 读取快照
func (s *LocalSink) Load(_ context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.basePath, name, SnapshotFileName))
	if os.IsNotExist(err) {
		return nil, errors.WrapFromCode(err, errors.ErrStorageNotFound)
	}
	if err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrSysInternalError)
	}
	return data, nil
}

//Personal.AI order the ending
