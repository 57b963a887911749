package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/models"
)

// DetailCache 测试用户详情缓存
type DetailCache struct {
	ttl time.Duration
}

// NewDetailCache 创建详情缓存，ttl<=0 时使用 1 分钟
func NewDetailCache(ttl time.Duration) *DetailCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &DetailCache{ttl: ttl}
}

func detailKey(id string) string {
	return fmt.Sprintf(constants.CacheKeyTestUserDetail, strings.TrimSpace(id))
}

// GetDetail 读取缓存
func (c *DetailCache) GetDetail(ctx context.Context, id string) (*models.TestUser, bool, error) {
	var user models.TestUser
	hit, err := GetJSON(ctx, detailKey(id), &user)
	if err != nil || !hit {
		return nil, false, err
	}
	return &user, true, nil
}

// SetDetail 写入缓存
func (c *DetailCache) SetDetail(ctx context.Context, user *models.TestUser) error {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return nil
	}
	return SetJSON(ctx, detailKey(user.ID), user, c.ttl)
}

// InvalidateDetail 删除缓存
func (c *DetailCache) InvalidateDetail(ctx context.Context, id string) error {
	return Del(ctx, detailKey(id))
}
