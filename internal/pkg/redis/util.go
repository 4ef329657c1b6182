package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// GetValue 获取字符串类型的值，键不存在时返回空串
func GetValue(ctx context.Context, key string) (string, error) {
	value, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// Exists 判断键是否存在
func Exists(ctx context.Context, key string) (bool, error) {
	n, err := Rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SAdd 向集合添加成员
func SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return Rdb.SAdd(ctx, key, args...).Err()
}

// SRem 从集合移除成员
func SRem(ctx context.Context, key string, member string) error {
	return Rdb.SRem(ctx, key, member).Err()
}

// GetSet 获取集合
func GetSet(ctx context.Context, key string) ([]string, error) {
	return Rdb.SMembers(ctx, key).Result()
}

// ReplaceSet 在事务管道内用 members 整体覆盖集合
func ReplaceSet(ctx context.Context, key string, members []string) error {
	pipe := Rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		args := make([]interface{}, len(members))
		for i, m := range members {
			args[i] = m
		}
		pipe.SAdd(ctx, key, args...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteKey 删除一个键
func DeleteKey(ctx context.Context, key string) error {
	return Rdb.Del(ctx, key).Err()
}
