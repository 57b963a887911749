// Package fakeapi 测试用的远程测试用户接口，gin + 内存 sqlite 实现
package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testuser-console/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	apiPrefix     = "/api/v1"
	defaultSecret = "fakeapi-secret"
	isoLayout     = "2006-01-02T15:04:05.000000"
)

// testUserRecord 测试用户表
type testUserRecord struct {
	ID          string    `gorm:"primaryKey;size:32"`
	Username    string    `gorm:"uniqueIndex;size:150;not null"`
	Nickname    string    `gorm:"size:150"`
	Email       string    `gorm:"size:254"`
	Phone       string    `gorm:"size:20"`
	Gender      int       `gorm:"not null"`
	Avatar      string    `gorm:"size:100"`
	Description string    `gorm:"type:text"`
	IsActive    bool      `gorm:"not null"`
	CreatedTime time.Time `gorm:"index"`
	UpdatedTime time.Time
}

func (testUserRecord) TableName() string {
	return "test_users"
}

func (r testUserRecord) toModel() models.TestUser {
	return models.TestUser{
		ID:          r.ID,
		Username:    r.Username,
		Nickname:    r.Nickname,
		Email:       r.Email,
		Phone:       r.Phone,
		Gender:      r.Gender,
		Avatar:      r.Avatar,
		Description: r.Description,
		IsActive:    r.IsActive,
		CreatedTime: r.CreatedTime.Format(isoLayout),
		UpdatedTime: r.UpdatedTime.Format(isoLayout),
	}
}

// Server 测试接口服务
type Server struct {
	DB     *gorm.DB
	Engine *gin.Engine
	HTTP   *httptest.Server

	secret string

	mu         sync.Mutex
	failDelete map[string]int
	listDelay  time.Duration
	listCalls  int
	delCalls   int
}

// Option 服务选项
type Option func(*Server)

// WithSecret 指定 HS256 密钥
func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// New 启动服务，测试结束时自动关闭
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:fakeapi_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&testUserRecord{}); err != nil {
		t.Fatalf("migrate test_users failed: %v", err)
	}

	s := &Server{
		DB:         db,
		secret:     defaultSecret,
		failDelete: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Engine = s.routes()
	s.HTTP = httptest.NewServer(s.Engine)
	t.Cleanup(func() {
		s.HTTP.Close()
		_ = sqlDB.Close()
	})
	return s
}

// BaseURL 接口根地址，例如 http://127.0.0.1:1234/api/v1
func (s *Server) BaseURL() string {
	return s.HTTP.URL + apiPrefix
}

// Token 签发一小时有效的访问令牌
func (s *Server) Token() string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(s.secret))
	if err != nil {
		panic(err)
	}
	return token
}

// Seed 写入测试数据，未指定编号时自动生成，返回写入后的数据
func (s *Server) Seed(t testing.TB, users ...models.TestUser) []models.TestUser {
	t.Helper()
	out := make([]models.TestUser, 0, len(users))
	base := time.Now().Add(-time.Hour)
	for i, user := range users {
		record := testUserRecord{
			ID:          user.ID,
			Username:    user.Username,
			Nickname:    user.Nickname,
			Email:       user.Email,
			Phone:       user.Phone,
			Gender:      user.Gender,
			Avatar:      user.Avatar,
			Description: user.Description,
			IsActive:    user.IsActive,
			CreatedTime: base.Add(time.Duration(i) * time.Second),
		}
		if record.ID == "" {
			record.ID = newID()
		}
		record.UpdatedTime = record.CreatedTime
		if err := s.DB.Create(&record).Error; err != nil {
			t.Fatalf("seed test user failed: %v", err)
		}
		out = append(out, record.toModel())
	}
	return out
}

// FailDelete 删除指定编号时返回给定状态码
func (s *Server) FailDelete(id string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete[id] = status
}

// SetListDelay 列表接口延迟响应
func (s *Server) SetListDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listDelay = d
}

// ListCalls 列表接口调用次数
func (s *Server) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// DeleteCalls 删除接口调用次数
func (s *Server) DeleteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delCalls
}

// Count 当前记录数
func (s *Server) Count(t testing.TB) int {
	t.Helper()
	var n int64
	if err := s.DB.Model(&testUserRecord{}).Count(&n).Error; err != nil {
		t.Fatalf("count test users failed: %v", err)
	}
	return int(n)
}

// Find 按编号查询，不存在时返回 false
func (s *Server) Find(t testing.TB, id string) (models.TestUser, bool) {
	t.Helper()
	var record testUserRecord
	err := s.DB.Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TestUser{}, false
	}
	if err != nil {
		t.Fatalf("find test user failed: %v", err)
	}
	return record.toModel(), true
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	group := r.Group(apiPrefix + "/test-users")
	group.Use(s.auth())
	{
		group.GET("", s.list)
		group.GET("/:id", s.detail)
		group.POST("", s.create)
		group.PUT("/:id", s.update)
		group.DELETE("/:id", s.remove)
	}
	return r
}

func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			detail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		token, err := parser.ParseWithClaims(parts[1], &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(s.secret), nil
		})
		if err != nil || !token.Valid {
			detail(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		c.Next()
	}
}

func detail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": message})
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:32]
}
