package data

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/transport"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

type requestHeaderKey struct{}

// withRequestHeader 给单次调用附加请求头，由 headerMiddleware 写入
func withRequestHeader(ctx context.Context, key, value string) context.Context {
	headers, _ := ctx.Value(requestHeaderKey{}).(map[string]string)
	merged := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		merged[k] = v
	}
	merged[key] = value
	return context.WithValue(ctx, requestHeaderKey{}, merged)
}

// headerMiddleware 设置 bearer token 以及 ctx 中附加的请求头
func headerMiddleware(token string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if tr, ok := transport.FromClientContext(ctx); ok {
				if token != "" {
					tr.RequestHeader().Set("Authorization", "Bearer "+token)
				}
				if headers, ok := ctx.Value(requestHeaderKey{}).(map[string]string); ok {
					for k, v := range headers {
						tr.RequestHeader().Set(k, v)
					}
				}
			}
			return handler(ctx, req)
		}
	}
}

// newHTTPClient 创建带鉴权和调用日志的 kratos HTTP 客户端
func newHTTPClient(endpoint, token string, timeout time.Duration, logger log.Logger, opts ...khttp.ClientOption) (*khttp.Client, error) {
	base := []khttp.ClientOption{
		khttp.WithEndpoint(endpoint),
		khttp.WithTimeout(timeout),
		khttp.WithUserAgent("settlement-service"),
		khttp.WithMiddleware(
			logging.Client(logger),
			headerMiddleware(token),
		),
	}
	return khttp.NewClient(context.Background(), append(base, opts...)...)
}

// discardResponse 不关心响应体时使用
func discardResponse(_ context.Context, res *http.Response, _ interface{}) error {
	_, err := io.Copy(io.Discard, res.Body)
	return err
}
