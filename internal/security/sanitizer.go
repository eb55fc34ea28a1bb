// Package security はアプリケーションのセキュリティ機能を提供する。
//
// 入力サニタイズ、フィールドバリデーション、セキュリティ監査ログ、
// 外部エンドポイントへのSSRF防止を提供する。
// 自由入力テキストは保存・ルール照合の前に必ずSanitizeInputを通すこと。
package security

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxInputLength はサニタイズ後の自由入力テキストの最大長（rune数）。
const maxInputLength = 1000

// maxEmailLength はRFC上のメールアドレス長の上限。
const maxEmailLength = 254

// strictPolicy は全てのHTMLタグを除去する許可リストポリシー。
// scriptタグやon*イベント属性を含むマークアップは本文ごと除去される。
var strictPolicy = bluemonday.StrictPolicy()

// emailPattern は保守的なメールアドレスの形式。
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// nonDigitPattern は数字以外の文字。
var nonDigitPattern = regexp.MustCompile(`\D`)

// whitespacePattern は連続する空白文字。
var whitespacePattern = regexp.MustCompile(`\s+`)

// SanitizeInput は自由入力テキストを防御的にクリーニングする。
// 制御文字を除去し、スクリプト様のマークアップを剥がし、
// 連続空白を1つに圧縮し、maxInputLengthで切り詰める。
// 同一入力に対して常に同一出力を返す（冪等）。
func SanitizeInput(input string) string {
	// 制御文字（C0/C1領域とDEL）を除去
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, input)

	// HTMLタグを全て除去（script等を含む）
	cleaned = strictPolicy.Sanitize(cleaned)

	// 空白の圧縮とトリム
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	// 長さ制限
	runes := []rune(cleaned)
	if len(runes) > maxInputLength {
		cleaned = string(runes[:maxInputLength])
	}

	return cleaned
}

// SanitizeEmail はメールアドレスを小文字化・トリムして検証する。
// 形式不正または長すぎる場合はok=falseを返す（パニックしない）。
func SanitizeEmail(email string) (string, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(email))

	if len(cleaned) > maxEmailLength || !emailPattern.MatchString(cleaned) {
		return "", false
	}

	return cleaned, true
}

// SanitizePhone は電話番号から数字以外を除去して検証する。
// オーストラリアの携帯番号形式（04で始まる10桁）のみを受け付ける。
func SanitizePhone(phone string) (string, bool) {
	cleaned := nonDigitPattern.ReplaceAllString(phone, "")

	if len(cleaned) == 10 && strings.HasPrefix(cleaned, "04") {
		return cleaned, true
	}

	return "", false
}

// SanitizeNumber は文字列を数値として解釈し、範囲検証する。
// 数値でない、非有限、または[min, max]の範囲外の場合はok=falseを返す。
func SanitizeNumber(value string, min, max float64) (float64, bool) {
	num, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}
	if num < min || num > max {
		return 0, false
	}
	return num, true
}

// GenerateToken は暗号的に安全なランダムトークンを生成する。
// CSRF等のアンチフォージェリトークンとして使用する。
func GenerateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
