package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

func errorCode(err error) string {
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return strings.ToLower(strings.TrimSpace(minioErr.Code))
	}
	return ""
}

// IsNoSuchKey reports whether err means the object does not exist.
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	switch errorCode(err) {
	case "nosuchkey", "notfound":
		return true
	}
	// 部分网关只返回字符串形式的错误。
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchkey") || strings.Contains(lower, "specified key does not exist")
}

// IsBucketAlreadyOwned reports whether a MakeBucket lost a race with another
// creator of the same bucket.
func IsBucketAlreadyOwned(err error) bool {
	if err == nil {
		return false
	}
	switch errorCode(err) {
	case "bucketalreadyownedbyyou", "bucketalreadyexists":
		return true
	}
	return false
}
