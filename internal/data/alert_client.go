package data

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/constants"
)

// alertClient 向配置的 webhook POST 打款批次告警
type alertClient struct {
	client *khttp.Client
	path   string
	log    *log.Helper
}

// NewAlertClient 创建告警客户端，未配置 URL 时告警只写日志
func NewAlertClient(c *conf.Bootstrap, logger log.Logger) (biz.Alerter, func(), error) {
	helper := log.NewHelper(logger)
	if c == nil || c.Alert == nil || c.Alert.WebhookURL == "" {
		return &alertClient{log: helper}, func() {}, nil
	}
	u, err := url.Parse(c.Alert.WebhookURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, nil, fmt.Errorf("invalid alert webhook url %q", c.Alert.WebhookURL)
	}

	client, err := newHTTPClient(
		u.Scheme+"://"+u.Host,
		"",
		conf.Duration(c.Alert.Timeout, constants.DefaultAlertTimeout),
		logger,
		khttp.WithResponseDecoder(discardResponse),
	)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			helper.Warnf("Failed to close alert client: %v", err)
		}
	}
	return &alertClient{client: client, path: u.RequestURI(), log: helper}, cleanup, nil
}

func (a *alertClient) Notify(ctx context.Context, alert *biz.Alert) error {
	a.log.Warnf("Payout alert: source=%s processed=%d total=%d failed=%d reachedMaxAttempts=%d",
		alert.Source, alert.Processed, alert.Total, alert.FailedCount, alert.ReachedMaxAttemptsCount)
	if a.client == nil {
		return nil
	}
	if err := a.client.Invoke(ctx, "POST", a.path, alert, nil); err != nil {
		return fmt.Errorf("post payout alert: %w", err)
	}
	return nil
}
