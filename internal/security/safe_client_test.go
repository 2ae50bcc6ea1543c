package security

import (
	"testing"
	"time"
)

func TestNewSafeClient_ReturnsNonNil(t *testing.T) {
	p := NewSafeClientProvider()
	client := p.NewSafeClient(10*time.Second, 2*1024*1024)
	if client == nil {
		t.Fatal("NewSafeClient は nil を返してはならない")
	}
}

func TestValidateURL_AllowsPublicHTTPS(t *testing.T) {
	p := NewSafeClientProvider()
	if err := p.ValidateURL("https://schedule.example.com/attend?date=20250701"); err != nil {
		t.Errorf("公開HTTPSのURLは許可されるはず: %v", err)
	}
}

func TestValidateURL_RejectsBadInput(t *testing.T) {
	p := NewSafeClientProvider()

	cases := []struct {
		name string
		url  string
	}{
		{"空URL", ""},
		{"不正スキーム", "ftp://schedule.example.com/"},
		{"ホストなし", "https:///path"},
		{"ループバックIP", "http://127.0.0.1/attend"},
		{"プライベートIP", "http://192.168.1.10/attend"},
		{"メタデータIP", "http://169.254.169.254/latest/meta-data"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := p.ValidateURL(tc.url); err == nil {
				t.Errorf("ValidateURL(%q) はエラーを返すはず", tc.url)
			}
		})
	}
}
