package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/sportsreg/internal/model"
)

// initialRetryDelay は再送の初回遅延。以降は2倍ずつ増やす。
const initialRetryDelay = time.Second

// DispatcherConfig はディスパッチャの設定。
type DispatcherConfig struct {
	QueueSize   int           // 送信キューの容量
	MaxRetries  int           // 送信失敗時の最大再試行回数
	SendTimeout time.Duration // 1回の送信のタイムアウト
	FromName    string        // メールの差出人名
}

// Metrics は送信結果のメトリクス記録のインターフェース。
type Metrics interface {
	RecordNotificationSent()
	RecordNotificationFailure()
}

// job は送信待ちの1件のメール。
type job struct {
	email EmailRequest
}

// Dispatcher は参加確認メールをバックグラウンドで送信する。
// キューへの投入は非ブロッキングで、満杯の場合は黙って捨ててログに残す。
// 送信の成否が参加登録のレスポンスに影響することはない。
type Dispatcher struct {
	client  *Client
	logger  *slog.Logger
	config  DispatcherConfig
	metrics Metrics

	queue chan job
	wg    sync.WaitGroup
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
// metricsはnilでもよい。
func NewDispatcher(client *Client, logger *slog.Logger, metrics Metrics, config DispatcherConfig) *Dispatcher {
	if config.QueueSize <= 0 {
		config.QueueSize = 128
	}
	return &Dispatcher{
		client:  client,
		logger:  logger,
		config:  config,
		metrics: metrics,
		queue:   make(chan job, config.QueueSize),
	}
}

// Start はバックグラウンドの送信ゴルーチンを起動する。
// ctxのキャンセルで停止する。
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx)
	}()
}

// Wait は送信ゴルーチンの終了を待つ。Startの後に呼ぶこと。
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// QueueLength は現在の送信待ち件数を返す。テストおよびメトリクス用。
func (d *Dispatcher) QueueLength() int {
	return len(d.queue)
}

// EnqueueJoinConfirmation は参加確認メールを送信キューへ投入する。
// キューが満杯の場合は捨てて警告ログを残す。
func (d *Dispatcher) EnqueueJoinConfirmation(user *model.User, program *model.Program) {
	email, err := BuildJoinConfirmation(user, program, d.config.FromName)
	if err != nil {
		d.logger.Error("参加確認メールの組み立てに失敗しました",
			slog.String("user_id", user.ID),
			slog.Int("program_id", program.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	select {
	case d.queue <- job{email: email}:
	default:
		d.logger.Warn("通知キューが満杯のためメールを破棄しました",
			slog.String("user_id", user.ID),
			slog.Int("program_id", program.ID),
		)
	}
}

// run はキューからジョブを取り出して送信するループ。
func (d *Dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.queue:
			d.send(ctx, j.email)
		}
	}
}

// send は1件のメールを再試行付きで送信する。
// 失敗しても呼び出し元へは伝播させず、最終結果をログに残す。
func (d *Dispatcher) send(ctx context.Context, email EmailRequest) {
	delay := initialRetryDelay

	for attempt := 1; ; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
		resp, err := d.client.Send(sendCtx, email)
		cancel()

		if err == nil {
			d.logger.Info("参加確認メールを送信しました",
				slog.String("to", email.To),
				slog.String("message_id", resp.MessageID),
			)
			if d.metrics != nil {
				d.metrics.RecordNotificationSent()
			}
			return
		}

		if attempt > d.config.MaxRetries {
			d.logger.Error("参加確認メールの送信を諦めました",
				slog.String("to", email.To),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()),
			)
			if d.metrics != nil {
				d.metrics.RecordNotificationFailure()
			}
			return
		}

		d.logger.Warn("参加確認メールの送信に失敗しました。再試行します",
			slog.String("to", email.To),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
}
