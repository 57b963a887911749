package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/logger"
	"github.com/testuser-console/internal/models"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

// DetailCache 详情读穿缓存
type DetailCache interface {
	GetDetail(ctx context.Context, id string) (*models.TestUser, bool, error)
	SetDetail(ctx context.Context, user *models.TestUser) error
	InvalidateDetail(ctx context.Context, id string) error
}

// Options 客户端配置
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Cache      DetailCache
}

// Client 测试用户远程接口客户端
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      DetailCache
	group      singleflight.Group
}

// New 创建客户端
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: base_url invalid: %v", ErrConfigInvalid, err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	token := strings.TrimSpace(opts.Token)
	if expiry, ok := TokenExpiry(token); ok && time.Now().After(expiry) {
		logger.Warnw("api_token_expired", "expired_at", expiry)
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		cache:      opts.Cache,
	}, nil
}

// List 分页查询
func (c *Client) List(ctx context.Context, params models.ListParams) (*Result[models.ListData], error) {
	values, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrRequestFailed, err)
	}
	var out Result[models.ListData]
	if err := c.do(ctx, http.MethodGet, constants.TestUsersPath, values, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Detail 查询详情，命中缓存时不发起请求，并发的相同查询合并为一次
func (c *Client) Detail(ctx context.Context, id string) (*Result[models.TestUser], error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}
	if c.cache != nil {
		user, hit, err := c.cache.GetDetail(ctx, id)
		if err != nil {
			logger.Warnw("testuser_detail_cache_get_failed", "id", id, "error", err)
		} else if hit && user != nil {
			return &Result[models.TestUser]{Success: true, Data: *user}, nil
		}
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		var out Result[models.TestUser]
		if err := c.do(ctx, http.MethodGet, userPath(id), nil, nil, &out); err != nil {
			return nil, err
		}
		if out.Success && c.cache != nil {
			if err := c.cache.SetDetail(ctx, &out.Data); err != nil {
				logger.Warnw("testuser_detail_cache_set_failed", "id", id, "error", err)
			}
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.(*Result[models.TestUser])
	res := *shared
	return &res, nil
}

// Create 新增
func (c *Client) Create(ctx context.Context, draft models.TestUserDraft) (*Result[models.TestUser], error) {
	var out Result[models.TestUser]
	if err := c.do(ctx, http.MethodPost, constants.TestUsersPath, nil, draftBody(draft), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update 修改
func (c *Client) Update(ctx context.Context, id string, draft models.TestUserDraft) (*Result[models.TestUser], error) {
	return c.Patch(ctx, id, draftBody(draft))
}

// Patch 按字段修改，fields 中的键原样提交
func (c *Client) Patch(ctx context.Context, id string, fields map[string]interface{}) (*Result[models.TestUser], error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}
	var out Result[models.TestUser]
	if err := c.do(ctx, http.MethodPut, userPath(id), nil, fields, &out); err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return &out, nil
}

// Delete 删除，204 或空响应体视为成功
func (c *Client) Delete(ctx context.Context, id string) (*Result[struct{}], error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}
	out := Result[struct{}]{Success: true}
	if err := c.do(ctx, http.MethodDelete, userPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return &out, nil
}

func (c *Client) invalidate(ctx context.Context, id string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidateDetail(ctx, id); err != nil {
		logger.Warnw("testuser_detail_cache_invalidate_failed", "id", id, "error", err)
	}
}

func (c *Client) do(ctx context.Context, method, path string, values url.Values, body interface{}, out interface{}) error {
	endpoint := c.baseURL + path
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal body: %v", ErrRequestFailed, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debugw("testuser_api_request_failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}
	logger.Debugw("testuser_api_request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{
			Code:      resp.StatusCode,
			Detail:    extractDetail(data),
			RequestID: requestID,
		}
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return nil
}

// extractDetail 解析错误响应中的 detail / message 字段
func extractDetail(data []byte) string {
	if len(bytes.TrimSpace(data)) == 0 {
		return ""
	}
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Msg     string          `json:"msg"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}
	if len(body.Detail) > 0 {
		var text string
		if err := json.Unmarshal(body.Detail, &text); err == nil {
			return text
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					parts = append(parts, item.Msg)
				}
			}
			return strings.Join(parts, "; ")
		}
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Msg
}

func userPath(id string) string {
	return constants.TestUsersPath + "/" + url.PathEscape(id)
}

func draftBody(draft models.TestUserDraft) map[string]interface{} {
	return map[string]interface{}{
		"username":    draft.Username,
		"nickname":    draft.Nickname,
		"email":       draft.Email,
		"phone":       draft.Phone,
		"gender":      draft.Gender,
		"avatar":      draft.Avatar,
		"description": draft.Description,
		"is_active":   draft.IsActive,
	}
}
