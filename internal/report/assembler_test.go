package report

import (
	"strings"
	"testing"
	"time"
)

func TestSubject_Format(t *testing.T) {
	a := NewAssembler()

	// 2024-04-01 is a Monday.
	got := a.Subject("赵金洋", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
	want := "赵金洋 2024-04-01 星期一 日报"
	if got != want {
		t.Errorf("Subject = %q, want %q", got, want)
	}

	// 2024-04-07 is a Sunday.
	got = a.Subject("赵金洋", time.Date(2024, time.April, 7, 0, 0, 0, 0, time.UTC))
	want = "赵金洋 2024-04-07 星期日 日报"
	if got != want {
		t.Errorf("Subject = %q, want %q", got, want)
	}
}

func TestSubject_DefaultsUserName(t *testing.T) {
	a := NewAssembler()
	got := a.Subject("", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
	if !strings.HasPrefix(got, "学习报告 ") {
		t.Errorf("Subject = %q, want default name prefix", got)
	}
}

func TestBody_InsertsContentVerbatim(t *testing.T) {
	a := NewAssembler()

	body, err := a.Body("1. <br><br>要点一", "赵金洋", "+86 183 0000 0000")
	if err != nil {
		t.Fatalf("Body returned error: %v", err)
	}
	if !strings.Contains(body, "1. <br><br>要点一") {
		t.Errorf("content was escaped or dropped:\n%s", body)
	}
	if !strings.Contains(body, "赵金洋") {
		t.Error("signature name missing")
	}
	if !strings.Contains(body, "+86 183 0000 0000") {
		t.Error("signature phone missing")
	}
	if !strings.Contains(body, "Hi teacher,") {
		t.Error("greeting missing")
	}
}

func TestBody_EmptySignatureFields(t *testing.T) {
	a := NewAssembler()

	body, err := a.Body("content", "", "")
	if err != nil {
		t.Fatalf("Body returned error: %v", err)
	}
	if !strings.Contains(body, "content") {
		t.Error("content missing")
	}
}
