package cache

import "errors"

var (
	// ErrSelfFollow 自己不能关注自己
	ErrSelfFollow = errors.New("用户不能关注自己")
	// ErrUnknownCounter 非法的互动计数字段名
	ErrUnknownCounter = errors.New("未知的互动计数字段")
	// ErrNoSuchKey 键不存在（Rename 源键缺失）
	ErrNoSuchKey = errors.New("no such key")
)
