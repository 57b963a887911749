package fakeapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type listQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Username string `form:"username"`
	Phone    string `form:"phone"`
	Status   *int   `form:"status"`
}

func (s *Server) list(c *gin.Context) {
	s.mu.Lock()
	s.listCalls++
	delay := s.listDelay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 10
	}
	if q.Page < 1 || q.PageSize < 1 || q.PageSize > 100 {
		detail(c, http.StatusUnprocessableEntity, "page or page_size out of range")
		return
	}

	query := s.DB.Model(&testUserRecord{})
	if q.Username != "" {
		query = query.Where("username LIKE ?", "%"+q.Username+"%")
	}
	if q.Phone != "" {
		query = query.Where("phone LIKE ?", "%"+q.Phone+"%")
	}
	if q.Status != nil {
		query = query.Where("is_active = ?", *q.Status == 1)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}
	var records []testUserRecord
	if err := query.Order("created_time ASC, id ASC").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&records).Error; err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]interface{}, 0, len(records))
	for _, record := range records {
		items = append(items, record.toModel())
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items":     items,
			"total":     total,
			"page":      q.Page,
			"page_size": q.PageSize,
			"pages":     (int(total) + q.PageSize - 1) / q.PageSize,
		},
	})
}

func (s *Server) find(c *gin.Context) (*testUserRecord, bool) {
	var record testUserRecord
	err := s.DB.Where("id = ?", c.Param("id")).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		detail(c, http.StatusNotFound, "测试用户不存在")
		return nil, false
	}
	if err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return &record, true
}

func (s *Server) detail(c *gin.Context) {
	record, ok := s.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": record.toModel()})
}

func (s *Server) usernameTaken(username, exceptID string) (bool, error) {
	var n int64
	query := s.DB.Model(&testUserRecord{}).Where("username = ?", username)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Server) create(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	username, _ := body["username"].(string)
	if username == "" {
		detail(c, http.StatusUnprocessableEntity, "username is required")
		return
	}
	taken, err := s.usernameTaken(username, "")
	if err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if taken {
		detail(c, http.StatusConflict, "用户名已存在")
		return
	}

	now := time.Now()
	record := testUserRecord{
		ID:          newID(),
		Username:    username,
		IsActive:    true,
		CreatedTime: now,
		UpdatedTime: now,
	}
	applyFields(&record, body)
	if err := s.DB.Create(&record).Error; err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "测试用户创建成功", "data": record.toModel()})
}

func (s *Server) update(c *gin.Context) {
	record, ok := s.find(c)
	if !ok {
		return
	}
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if username, ok := body["username"].(string); ok {
		taken, err := s.usernameTaken(username, record.ID)
		if err != nil {
			detail(c, http.StatusInternalServerError, err.Error())
			return
		}
		if taken {
			detail(c, http.StatusConflict, "用户名已存在")
			return
		}
	}
	applyFields(record, body)
	record.UpdatedTime = time.Now()
	if err := s.DB.Save(record).Error; err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "测试用户更新成功", "data": record.toModel()})
}

func (s *Server) remove(c *gin.Context) {
	s.mu.Lock()
	s.delCalls++
	status := s.failDelete[c.Param("id")]
	s.mu.Unlock()
	if status != 0 {
		detail(c, status, "删除失败")
		return
	}
	record, ok := s.find(c)
	if !ok {
		return
	}
	if err := s.DB.Delete(record).Error; err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// applyFields 仅写入已知字段，id 与 created_time 不可修改
func applyFields(record *testUserRecord, body map[string]interface{}) {
	for key, value := range body {
		switch key {
		case "username":
			record.Username = stringValue(value, record.Username)
		case "nickname":
			record.Nickname = stringValue(value, record.Nickname)
		case "email":
			record.Email = stringValue(value, record.Email)
		case "phone":
			record.Phone = stringValue(value, record.Phone)
		case "avatar":
			record.Avatar = stringValue(value, record.Avatar)
		case "description":
			record.Description = stringValue(value, record.Description)
		case "gender":
			record.Gender = intValue(value, record.Gender)
		case "is_active":
			if v, ok := value.(bool); ok {
				record.IsActive = v
			}
		}
	}
}

func stringValue(value interface{}, fallback string) string {
	if v, ok := value.(string); ok {
		return v
	}
	return fallback
}

func intValue(value interface{}, fallback int) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
