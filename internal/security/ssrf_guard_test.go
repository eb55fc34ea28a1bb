package security

import (
	"net/http"
	"testing"
	"time"
)

// TestNewSSRFGuard はSSRFGuardの生成をテストする。
func TestNewSSRFGuard(t *testing.T) {
	guard := NewSSRFGuard()
	if guard == nil {
		t.Fatal("NewSSRFGuard() returned nil")
	}
}

// TestNewSafeClientTimeout はタイムアウト設定が反映されることをテストする。
func TestNewSafeClientTimeout(t *testing.T) {
	guard := NewSSRFGuard()
	timeout := 5 * time.Second
	client := guard.NewSafeClient(timeout)
	if client.Timeout != timeout {
		t.Errorf("expected timeout %v, got %v", timeout, client.Timeout)
	}
}

// TestNewSafeClientHasTransport はSafeClientにカスタムTransportが設定されていることをテストする。
// safeurlはnet.DialerのControlフックでIPアドレス検証を行うため、
// Transportが標準のhttp.DefaultTransportではないことを確認する。
func TestNewSafeClientHasTransport(t *testing.T) {
	guard := NewSSRFGuard()
	client := guard.NewSafeClient(5 * time.Second)

	if client.Transport == nil {
		t.Fatal("expected custom Transport to be set, got nil")
	}
	if client.Transport == http.DefaultTransport {
		t.Fatal("expected custom Transport, got http.DefaultTransport")
	}
}

// TestValidateURL はURLの静的検証をテストする。
func TestValidateURL(t *testing.T) {
	guard := NewSSRFGuard()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "公開HTTPSのURLは許可", url: "https://sendemail.example.com/send", wantErr: false},
		{name: "公開HTTPのURLは許可", url: "http://example.com", wantErr: false},
		{name: "空URLは拒否", url: "", wantErr: true},
		{name: "ftpスキームは拒否", url: "ftp://example.com", wantErr: true},
		{name: "javascriptスキームは拒否", url: "javascript:alert(1)", wantErr: true},
		{name: "localhostは拒否", url: "http://localhost:8080", wantErr: true},
		{name: "ループバックIPは拒否", url: "http://127.0.0.1/admin", wantErr: true},
		{name: "プライベートIP 10.x は拒否", url: "http://10.0.0.5", wantErr: true},
		{name: "プライベートIP 192.168.x は拒否", url: "http://192.168.1.1", wantErr: true},
		{name: "メタデータIPは拒否", url: "http://169.254.169.254/latest/meta-data", wantErr: true},
		{name: "ホスト無しは拒否", url: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidateURL(tt.url)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateURL(%q) = nil, want error", tt.url)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateURL(%q) = %v, want nil", tt.url, err)
			}
		})
	}
}
