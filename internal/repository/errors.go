package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateKey は一意制約に違反した場合に返す。
// チェック後の書き込みで競合した場合でも、この制約がデータの重複を防ぐ。
var ErrDuplicateKey = errors.New("一意制約に違反しました")

// uniqueViolationCode はPostgreSQLのunique_violationエラーコード。
const uniqueViolationCode = "23505"

// isUniqueViolation はerrがPostgreSQLの一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
