package storage

import (
	"path"
	"regexp"
	"strings"

	"github.com/openeeap/replytune/pkg/errors"
)

// SnapshotFileName 快照目录内的文件名
const SnapshotFileName = "policy.json"

var snapshotNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ObjectKey 快照对象键：<name>/policy.json
func ObjectKey(name string) string {
	return path.Join(name, SnapshotFileName)
}

// ValidateName 快照名必须是单层目录名，不允许路径穿越
func ValidateName(name string) error {
	if !snapshotNamePattern.MatchString(name) || strings.Contains(name, "..") {
		return errors.NewValidationError(errors.ErrStorageUploadFailed.Code, "invalid snapshot name: "+name)
	}
	return nil
}

//Personal.AI order the ending
