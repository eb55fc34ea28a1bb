package security

import (
	"regexp"
	"strconv"
	"strings"
)

// バリデーションの閾値。登録フォームのルールに対応する。
const (
	minNameLength     = 2
	minAge            = 16
	maxAge            = 99
	minPasswordLength = 8
)

// passwordCompositionPattern は英字と数字の両方を含むことの検証。
var (
	passwordLetterPattern = regexp.MustCompile(`[A-Za-z]`)
	passwordDigitPattern  = regexp.MustCompile(`[0-9]`)
	scriptLikePattern     = regexp.MustCompile(`(?i)<script|javascript:|vbscript:`)
)

// ValidateName は氏名フィールドを検証する。
// 有効な場合は空文字列、無効な場合は表示用メッセージを返す。
func ValidateName(name string) string {
	cleaned := SanitizeInput(name)
	if cleaned == "" {
		return "この項目は必須です。"
	}
	if len([]rune(cleaned)) < minNameLength {
		return "2文字以上で入力してください。"
	}
	return ""
}

// ValidateEmail はメールアドレスを検証する。
func ValidateEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "この項目は必須です。"
	}
	if _, ok := SanitizeEmail(email); !ok {
		return "有効なメールアドレスを入力してください。"
	}
	return ""
}

// ValidatePhone は電話番号を検証する。
// オーストラリアの携帯番号形式（04XX XXX XXX）のみ有効。
func ValidatePhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return "この項目は必須です。"
	}
	if _, ok := SanitizePhone(phone); !ok {
		return "有効な携帯番号を入力してください（04XX XXX XXX）。"
	}
	return ""
}

// ValidateAge は年齢を検証する。16〜99歳の範囲のみ有効。
func ValidateAge(age string) string {
	if strings.TrimSpace(age) == "" {
		return "この項目は必須です。"
	}
	n, err := strconv.Atoi(strings.TrimSpace(age))
	if err != nil {
		return "年齢は数値で入力してください。"
	}
	if n < minAge || n > maxAge {
		return "年齢は16〜99の範囲で入力してください。"
	}
	return ""
}

// ValidatePassword はパスワード強度を検証する。
// 8文字以上、英字と数字の両方を含み、スクリプト様の文字列を含まないこと。
func ValidatePassword(password string) string {
	if password == "" {
		return "パスワードは必須です。"
	}
	if len(password) < minPasswordLength {
		return "パスワードは8文字以上で入力してください。"
	}
	if !passwordLetterPattern.MatchString(password) || !passwordDigitPattern.MatchString(password) {
		return "パスワードには英字と数字の両方を含めてください。"
	}
	if scriptLikePattern.MatchString(password) {
		return "パスワードに使用できない文字列が含まれています。"
	}
	return ""
}

// ValidateConfirmPassword は確認用パスワードの一致を検証する。
func ValidateConfirmPassword(confirmPassword, password string) string {
	if confirmPassword == "" {
		return "確認用パスワードを入力してください。"
	}
	if confirmPassword != password {
		return "パスワードが一致しません。"
	}
	return ""
}
