package service

import (
	"context"
	"io"
	stdhttp "net/http"

	"github.com/go-kratos/kratos/v2/transport/http"

	bizErrors "github.com/Noashop/test-pago-sub003/internal/errors"
)

const (
	OperationHandleWebhook    = "/settlement.v1.Settlement/HandleWebhook"
	OperationListPayouts      = "/settlement.v1.Settlement/ListPayouts"
	OperationGeneratePayouts  = "/settlement.v1.Settlement/GeneratePayouts"
	OperationProcessPayouts   = "/settlement.v1.Settlement/ProcessPayouts"
	OperationRetryPayouts     = "/settlement.v1.Settlement/RetryPayouts"
	OperationListPaymentLogs  = "/settlement.v1.Settlement/ListPaymentLogs"
	OperationCreatePreference = "/settlement.v1.Settlement/CreatePreference"
)

// RegisterSettlementHTTPServer 注册结算服务路由
func RegisterSettlementHTTPServer(s *http.Server, srv *SettlementService) {
	r := s.Route("/")
	r.POST("/v1/webhooks/payments", _Settlement_HandleWebhook0_HTTP_Handler(srv))
	r.GET("/v1/webhooks/payments", _Settlement_HandleWebhook0_HTTP_Handler(srv))
	r.GET("/v1/admin/payouts", _Settlement_ListPayouts0_HTTP_Handler(srv))
	r.POST("/v1/admin/payouts/generate", _Settlement_GeneratePayouts0_HTTP_Handler(srv))
	r.POST("/v1/admin/payouts/process", _Settlement_ProcessPayouts0_HTTP_Handler(srv))
	r.GET("/v1/admin/payment-logs", _Settlement_ListPaymentLogs0_HTTP_Handler(srv))
	r.POST("/v1/admin/orders/{order_id}/preference", _Settlement_CreatePreference0_HTTP_Handler(srv))
	r.POST("/v1/cron/payouts/retry", _Settlement_RetryPayouts0_HTTP_Handler(srv))
}

// webhook 失败统一返回 {error}，网关收到非 2xx 会重推
func _Settlement_HandleWebhook0_HTTP_Handler(srv *SettlementService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		body, err := io.ReadAll(ctx.Request().Body)
		if err != nil {
			return ctx.JSON(stdhttp.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		in := &WebhookRequest{Query: ctx.Request().URL.Query(), Body: body}
		http.SetOperation(ctx, OperationHandleWebhook)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.HandleWebhook(ctx, req.(*WebhookRequest))
		})
		out, err := h(ctx, in)
		if err != nil {
			srv.log.Errorf("Webhook handling failed: %v", err)
			return ctx.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return ctx.Result(stdhttp.StatusOK, out)
	}
}

func _Settlement_ListPayouts0_HTTP_Handler(srv *SettlementService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in ListPayoutsRequest
		if err := ctx.BindQuery(&in); err != nil {
			return invalidArgument(err)
		}
		http.SetOperation(ctx, OperationListPayouts)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListPayouts(ctx, req.(*ListPayoutsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(stdhttp.StatusOK, out)
	}
}

func _Settlement_GeneratePayouts0_HTTP_Handler(srv *SettlementService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in GeneratePayoutsRequest
		if err := bindBody(ctx, &in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationGeneratePayouts)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GeneratePayouts(ctx, req.(*GeneratePayoutsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(stdhttp.StatusOK, out)
	}
}

func _Settlement_ProcessPayouts0_HTTP_Handler(srv *SettlementService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in ProcessPayoutsRequest
		if err := bindBody(ctx, &in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationProcessPayouts)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ProcessPayouts(ctx, req.(*ProcessPayoutsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(stdhttp.StatusOK, out)
	}
}

func _Settlement_RetryPayouts0_HTTP_Handler(srv *SettlementService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, OperationRetryPayouts)
		h := ctx.Middleware(func(ctx context.Context, _ interface{}) (interface{}, error) {
			return srv.RetryPayouts(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(stdhttp.StatusOK, out)
	}
}

func _Settlement_ListPaymentLogs0_HTTP_Handler(srv *SettlementService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in ListPaymentLogsRequest
		if err := ctx.BindQuery(&in); err != nil {
			return invalidArgument(err)
		}
		http.SetOperation(ctx, OperationListPaymentLogs)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListPaymentLogs(ctx, req.(*ListPaymentLogsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(stdhttp.StatusOK, out)
	}
}

func _Settlement_CreatePreference0_HTTP_Handler(srv *SettlementService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := CreatePreferenceRequest{OrderID: ctx.Vars().Get("order_id")}
		http.SetOperation(ctx, OperationCreatePreference)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.CreatePreference(ctx, req.(*CreatePreferenceRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(stdhttp.StatusOK, out)
	}
}

// bindBody 空 body 视为全部默认值
func bindBody(ctx http.Context, v interface{}) error {
	if ctx.Request().ContentLength == 0 {
		return nil
	}
	if err := ctx.Bind(v); err != nil {
		return invalidArgument(err)
	}
	return nil
}

func invalidArgument(err error) error {
	return bizErrors.New(bizErrors.ErrCodeInvalidArgument, err.Error())
}
