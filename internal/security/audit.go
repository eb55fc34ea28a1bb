package security

import (
	"context"
	"log/slog"
)

// 監査ログのカテゴリ。
const (
	// AuditCategoryAccess は保護ルートへのアクセス記録。
	AuditCategoryAccess = "security-access"
	// AuditCategoryAuth はログイン・登録・ログアウトの記録。
	AuditCategoryAuth = "security-auth"
	// AuditCategoryAdmin はロール変更・削除等の管理操作の記録。
	AuditCategoryAdmin = "security-admin"
)

// AuditLogger はセキュリティ監査ログを出力する。
// 監査ログは助言的なもので、出力の失敗が主処理の結果に影響してはならない。
// 属性値はログインジェクション防止のため出力前にサニタイズされる。
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger はAuditLoggerを生成する。
// loggerがnilの場合はグローバルロガーを使用する。
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger}
}

// Info はセキュリティ関連の成功イベントを記録する。
func (a *AuditLogger) Info(category, message string, attrs ...slog.Attr) {
	a.log(slog.LevelInfo, category, message, attrs)
}

// Warn はセキュリティ関連の警告イベント（認証失敗等）を記録する。
func (a *AuditLogger) Warn(category, message string, attrs ...slog.Attr) {
	a.log(slog.LevelWarn, category, message, attrs)
}

// Error はセキュリティ関連の失敗イベントを記録する。
func (a *AuditLogger) Error(category, message string, attrs ...slog.Attr) {
	a.log(slog.LevelError, category, message, attrs)
}

func (a *AuditLogger) log(level slog.Level, category, message string, attrs []slog.Attr) {
	out := make([]slog.Attr, 0, len(attrs)+1)
	out = append(out, slog.String("category", category))
	for _, attr := range attrs {
		out = append(out, sanitizeAttr(attr))
	}
	a.logger.LogAttrs(context.Background(), level, SanitizeInput(message), out...)
}

// sanitizeAttr は文字列属性の値をサニタイズする。
// 文字列以外の属性はそのまま通す。
func sanitizeAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindString {
		return slog.String(attr.Key, SanitizeInput(attr.Value.String()))
	}
	return attr
}
