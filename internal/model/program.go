// Package model はドメインモデルを定義する。
package model

import "time"

// Program はコミュニティスポーツプログラムを表す。
// IDは1から始まる連番の整数で、削除後も欠番が残らないよう
// 再採番される（repository/programパッケージ参照）。
type Program struct {
	ID                  int
	Name                string
	Category            string
	Price               string
	Description         string
	DetailedDescription string
	Schedule            string
	Location            string
	Difficulty          string
	MaxParticipants     int
	Participants        int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// プログラム作成時のデフォルト値。
const (
	DefaultMaxParticipants = 20
	DefaultPrice           = "0"
	DefaultCategory        = "General"
	DefaultDifficulty      = "Beginner"
)
