package server

import (
	"encoding/json"
	stdhttp "net/http"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/validate"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/Noashop/test-pago-sub003/internal/auth"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	bizErrors "github.com/Noashop/test-pago-sub003/internal/errors"
	"github.com/Noashop/test-pago-sub003/internal/service"
)

// ServiceName 健康检查返回的服务名
const ServiceName = "settlement-service"

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Bootstrap, settlement *service.SettlementService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			// 参数校验，请求类型实现 Validate() error
			validate.Validator(),
			// 上游网关注入的身份头
			auth.Server(),
		),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server != nil {
		if c.Server.Http.Addr != "" {
			opts = append(opts, http.Address(c.Server.Http.Addr))
		}
		if c.Server.Http.Timeout != "" {
			opts = append(opts, http.Timeout(conf.Duration(c.Server.Http.Timeout, 0)))
		}
	}
	srv := http.NewServer(opts...)

	service.RegisterSettlementHTTPServer(srv, settlement)

	srv.Route("/").GET("/health", func(ctx http.Context) error {
		return ctx.Result(stdhttp.StatusOK, map[string]string{"status": "ok", "service": ServiceName})
	})

	return srv
}

func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	status := stdhttp.StatusInternalServerError
	response := map[string]interface{}{
		"code":    status,
		"message": "internal server error",
	}

	if se != nil {
		status = bizErrors.HTTPStatus(int(se.Code))
		response["code"] = se.Code
		response["reason"] = se.Reason
		response["message"] = se.Message
		if len(se.Metadata) > 0 {
			response["metadata"] = se.Metadata
		}
	} else if err != nil {
		response["message"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
