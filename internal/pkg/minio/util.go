package minio

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// DeleteObjects 批量删除媒体对象，帖子编辑换图或账号注销时回收存储。
// 单个对象删除失败继续删其余的，最后汇总返回。
func DeleteObjects(ctx context.Context, objectNames []string) error {
	if Client == nil {
		return fmt.Errorf("minio client is not initialized")
	}

	var firstErr error
	for _, objectName := range objectNames {
		err := Client.RemoveObject(ctx, MainBucket, objectName, minio.RemoveObjectOptions{})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to delete object %s: %w", objectName, err)
		}
	}
	return firstErr
}
