package form

import (
	"errors"
	"strings"
	"testing"

	"github.com/testuser-console/internal/models"
)

func validDraft() models.TestUserDraft {
	return models.TestUserDraft{
		Username: "alice",
		Nickname: "Alice",
		Email:    "alice@example.com",
		Phone:    "13800138000",
		Gender:   1,
		IsActive: true,
	}
}

func TestValidateAcceptsValidDraft(t *testing.T) {
	v := MustNewDraftValidator()
	if err := v.Validate(validDraft()); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	draft := validDraft()
	draft.Email = ""
	draft.Phone = ""
	if err := v.Validate(draft); err != nil {
		t.Fatalf("optional email and phone should be allowed empty: %v", err)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	v := MustNewDraftValidator()
	draft := validDraft()
	draft.Username = "   "
	draft.Nickname = ""

	err := v.Validate(draft)
	if !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("expected ErrInvalidDraft, got %v", err)
	}
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	if fieldErrs.Message("username") != "请输入用户名称" {
		t.Fatalf("unexpected username message: %q", fieldErrs.Message("username"))
	}
	if fieldErrs.Message("nickname") != "请输入用户昵称" {
		t.Fatalf("unexpected nickname message: %q", fieldErrs.Message("nickname"))
	}
}

func TestValidateFormats(t *testing.T) {
	v := MustNewDraftValidator()
	cases := []struct {
		name  string
		edit  func(*models.TestUserDraft)
		field string
		want  string
	}{
		{"bad email", func(d *models.TestUserDraft) { d.Email = "not-an-email" }, "email", "请输入正确的邮箱格式"},
		{"bad phone", func(d *models.TestUserDraft) { d.Phone = "12345" }, "phone", "请输入正确的手机号码格式"},
		{"phone prefix", func(d *models.TestUserDraft) { d.Phone = "12800138000" }, "phone", "请输入正确的手机号码格式"},
		{"bad gender", func(d *models.TestUserDraft) { d.Gender = 2 }, "gender", "性别取值无效"},
		{"long username", func(d *models.TestUserDraft) { d.Username = strings.Repeat("a", 151) }, "username", "用户名称长度不能超过150个字符"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.edit(&draft)
			err := v.Validate(draft)
			var fieldErrs FieldErrors
			if !errors.As(err, &fieldErrs) {
				t.Fatalf("expected FieldErrors, got %v", err)
			}
			if got := fieldErrs.Message(tc.field); got != tc.want {
				t.Fatalf("want %q got %q", tc.want, got)
			}
		})
	}
}
