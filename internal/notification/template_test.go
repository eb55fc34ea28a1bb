package notification

import (
	"strings"
	"testing"

	"github.com/hitoshi/sportsreg/internal/model"
)

// 件名と本文にユーザー名・プログラム情報が含まれることを検証
func TestBuildJoinConfirmation(t *testing.T) {
	user := &model.User{
		FirstName: "Taro",
		LastName:  "Yamada",
		Email:     "taro@example.com",
	}
	program := &model.Program{
		ID:          3,
		Name:        "Basketball Training",
		Description: "Professional basketball training",
		Schedule:    "Mon, Wed 6:00-8:00 PM",
		Location:    "Melbourne Sports Centre",
	}

	email, err := BuildJoinConfirmation(user, program, "Melbourne Community Sports")
	if err != nil {
		t.Fatalf("BuildJoinConfirmation() error = %v", err)
	}

	if email.To != "taro@example.com" {
		t.Errorf("email.To = %q, want %q", email.To, "taro@example.com")
	}
	wantSubject := "Welcome to Basketball Training - Melbourne Community Sports"
	if email.Subject != wantSubject {
		t.Errorf("email.Subject = %q, want %q", email.Subject, wantSubject)
	}

	for _, want := range []string{
		"Dear Taro Yamada",
		"Basketball Training",
		"Mon, Wed 6:00-8:00 PM",
		"Melbourne Sports Centre",
	} {
		if !strings.Contains(email.Message, want) {
			t.Errorf("email.Message does not contain %q", want)
		}
	}
}

// 空のフィールドが本文から省略されることを検証
func TestBuildJoinConfirmation_OmitsEmptyFields(t *testing.T) {
	user := &model.User{FirstName: "Taro", LastName: "Yamada", Email: "taro@example.com"}
	program := &model.Program{ID: 3, Name: "Yoga Classes"}

	email, err := BuildJoinConfirmation(user, program, "Melbourne Community Sports")
	if err != nil {
		t.Fatalf("BuildJoinConfirmation() error = %v", err)
	}

	if strings.Contains(email.Message, "Schedule:") {
		t.Error("expected empty schedule to be omitted")
	}
	if strings.Contains(email.Message, "Location:") {
		t.Error("expected empty location to be omitted")
	}
}

// テンプレートがHTML特殊文字をエスケープすることを検証
func TestBuildJoinConfirmation_EscapesHTML(t *testing.T) {
	user := &model.User{FirstName: "Taro", LastName: "Yamada", Email: "taro@example.com"}
	program := &model.Program{ID: 3, Name: "A & B <Club>"}

	email, err := BuildJoinConfirmation(user, program, "Melbourne Community Sports")
	if err != nil {
		t.Fatalf("BuildJoinConfirmation() error = %v", err)
	}

	if strings.Contains(email.Message, "<Club>") {
		t.Error("expected program name to be escaped in body")
	}
	if !strings.Contains(email.Message, "&amp;") {
		t.Error("expected ampersand to be escaped in body")
	}
}
