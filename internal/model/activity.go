// Package model はドメインモデルを定義する。
package model

import "time"

// ActivityStatus は参加記録の状態を表す。
type ActivityStatus string

const (
	// ActivityStatusUpcoming は開催予定の参加。
	ActivityStatusUpcoming ActivityStatus = "upcoming"
	// ActivityStatusCompleted は参加済み。
	ActivityStatusCompleted ActivityStatus = "completed"
	// ActivityStatusCancelled はキャンセル済み。
	ActivityStatusCancelled ActivityStatus = "cancelled"
)

// Activity はユーザーとプログラムの参加関係を表す。
// (UserID, ProgramID) の組は一意で、同じプログラムに二重参加はできない。
// ProgramNameは参加時点のスナップショット。
type Activity struct {
	ID          string
	UserID      string
	ProgramID   int
	ProgramName string
	JoinedDate  time.Time
	Status      ActivityStatus
	CreatedAt   time.Time
}

// Rating はユーザーによるプログラムの評価（1〜5の整数）を表す。
// (UserID, ProgramID) の組は一意で、再評価は上書き更新となる。
// 評価には事前の参加（Activity）が必要。
type Rating struct {
	ID        string
	UserID    string
	ProgramID int
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingSummary はプログラムの平均評価と件数を表す。
// Averageは小数第1位まで（四捨五入）。評価が無い場合はともに0。
type RatingSummary struct {
	Average float64
	Count   int
}

// Registration は登録フォームの申込内容の履歴レコード。
// Userプロフィールとは別に追記専用で保存し、最新のものを正とする。
type Registration struct {
	ID                 string
	UserID             string
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	Age                int
	InterestedPrograms []string
	EmergencyContact   string
	EmergencyPhone     string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
