package mail

import (
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func TestSplitRecipients(t *testing.T) {
	got := SplitRecipients(" a@example.com ,b@example.com,, c@example.com ")
	want := []string{"a@example.com", "b@example.com", "c@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitRecipients = %v, want %v", got, want)
	}

	if got := SplitRecipients(" , ,"); got != nil {
		t.Errorf("SplitRecipients of blanks = %v, want nil", got)
	}
}

func TestSend_NoRecipientsIsConfigError(t *testing.T) {
	s := NewSender(zap.NewNop())

	ok := s.Send(Message{From: "a@example.com"}, ServerConfig{Host: "smtp.example.com", Port: 465})
	if ok {
		t.Error("send with no recipients must fail without attempting delivery")
	}
}

func TestSend_MissingServerIsConfigError(t *testing.T) {
	s := NewSender(zap.NewNop())

	ok := s.Send(Message{From: "a@example.com", To: []string{"b@example.com"}}, ServerConfig{})
	if ok {
		t.Error("send without server config must fail")
	}
}
