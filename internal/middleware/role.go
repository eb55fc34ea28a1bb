package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/security"
)

// UserFinder はロール判定に必要なユーザー検索インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// userContextKey はリクエストコンテキストに解決済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// NewRoleMiddleware はユーザーのロールを検証するミドルウェアを生成する。
// セッションミドルウェアの後に配置すること。
// ロール解決はlookupTimeoutで打ち切り、失敗時は許可せず403を返す（fail-closed）。
// allowedRolesが空の場合はロールを問わず、ユーザーの解決のみを行う。
func NewRoleMiddleware(
	userFinder UserFinder,
	audit *security.AuditLogger,
	lookupTimeout time.Duration,
	allowedRoles ...model.Role,
) func(next http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(allowedRoles))
	for _, role := range allowedRoles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			lookupCtx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
			user, err := userFinder.FindByID(lookupCtx, userID)
			cancel()

			if err != nil {
				// タイムアウトを含む解決失敗はすべて拒否する
				audit.Warn(security.AuditCategoryAccess, "ロールの解決に失敗したためアクセスを拒否しました",
					slog.String("user_id", userID),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			if user == nil {
				audit.Warn(security.AuditCategoryAccess, "未知のユーザーからのアクセスを拒否しました",
					slog.String("user_id", userID),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			if len(allowed) > 0 && !allowed[user.Role] {
				audit.Warn(security.AuditCategoryAccess, "権限のないロールからのアクセスを拒否しました",
					slog.String("user_id", userID),
					slog.String("role", string(user.Role)),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストから解決済みユーザーを取得する。
// ロールミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok && user != nil
}

// ContextWithUser はコンテキストに解決済みユーザーを注入する。テスト用。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
