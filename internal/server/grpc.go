package server

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/grpc"

	"github.com/Noashop/test-pago-sub003/internal/conf"
)

// NewGRPCServer new a gRPC server.
// 只对外提供 kratos 内置的 grpc.health.v1 检查，业务接口走 HTTP
func NewGRPCServer(c *conf.Bootstrap, logger log.Logger) *grpc.Server {
	var opts = []grpc.ServerOption{
		grpc.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c.Server != nil {
		if c.Server.Grpc.Addr != "" {
			opts = append(opts, grpc.Address(c.Server.Grpc.Addr))
		}
		if c.Server.Grpc.Timeout != "" {
			opts = append(opts, grpc.Timeout(conf.Duration(c.Server.Grpc.Timeout, 0)))
		}
	}
	return grpc.NewServer(opts...)
}
