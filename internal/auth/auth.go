package auth

import (
	"context"
	"crypto/subtle"

	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"

	"github.com/Noashop/test-pago-sub003/internal/errors"
)

// 定义 context key
type contextKey string

const (
	// UserIDKey 用户ID的context key
	UserIDKey contextKey = "user_id"
	// UserRoleKey 用户角色的context key
	UserRoleKey contextKey = "user_role"
	// CronSecretKey 请求携带的 cron 密钥
	CronSecretKey contextKey = "cron_secret"
)

// 上游网关注入的身份头，会话管理不在本服务内
const (
	HeaderUserID     = "X-User-Id"
	HeaderUserRole   = "X-User-Role"
	HeaderCronSecret = "X-Cron-Secret"
)

// Role 用户角色
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Server 从请求头提取身份信息写入 context
func Server() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if tr, ok := transport.FromServerContext(ctx); ok {
				h := tr.RequestHeader()
				if uid := h.Get(HeaderUserID); uid != "" {
					ctx = context.WithValue(ctx, UserIDKey, uid)
				}
				if role := h.Get(HeaderUserRole); role != "" {
					ctx = context.WithValue(ctx, UserRoleKey, Role(role))
				}
				if secret := h.Get(HeaderCronSecret); secret != "" {
					ctx = context.WithValue(ctx, CronSecretKey, secret)
				}
			}
			return handler(ctx, req)
		}
	}
}

// GetUIDFromContext 从context中获取用户ID
func GetUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserIDKey).(string)
	return uid, ok
}

// GetRoleFromContext 从context中获取用户角色
func GetRoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(UserRoleKey).(Role)
	return role, ok
}

// IsAdmin 判断当前用户是否为管理员
func IsAdmin(ctx context.Context) bool {
	role, ok := GetRoleFromContext(ctx)
	return ok && role == RoleAdmin
}

// RequireAdmin 管理端接口鉴权
func RequireAdmin(ctx context.Context) error {
	if _, ok := GetUIDFromContext(ctx); !ok {
		return errors.New(errors.ErrCodeUnauthorized, "authentication required")
	}
	if !IsAdmin(ctx) {
		return errors.New(errors.ErrCodeForbidden, "permission denied: admin role required")
	}
	return nil
}

// RequireCronOrAdmin cron 入口鉴权：x-cron-secret 与配置一致，或管理员会话
func RequireCronOrAdmin(ctx context.Context, secret string) error {
	if got, ok := ctx.Value(CronSecretKey).(string); ok && secret != "" {
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1 {
			return nil
		}
	}
	return RequireAdmin(ctx)
}
