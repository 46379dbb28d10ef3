package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxAttempts = 5
	DefaultCronLimit   = 50
	DefaultCurrency    = "ARS"
	DefaultTopic       = "settlement.payouts"
	DefaultGatewayURL  = "https://api.mercadopago.com"
)

// Load 加载配置文件
func Load(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var c Bootstrap
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Prepare(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Prepare 加载 .env、覆盖环境变量并填充默认值，二进制入口和 Load 共用
func Prepare(c *Bootstrap) error {
	// .env 不存在是正常情况
	_ = godotenv.Load()

	c.SetDefaults()
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	return nil
}

// SetDefaults 填充缺省配置
func (b *Bootstrap) SetDefaults() {
	if b.Server == nil {
		b.Server = &Server{}
	}
	if b.Data == nil {
		b.Data = &Data{}
	}
	if b.Data.Database.Driver == "" {
		b.Data.Database.Driver = "mysql"
	}
	if b.Gateway == nil {
		b.Gateway = &Gateway{}
	}
	if b.Gateway.BaseURL == "" {
		b.Gateway.BaseURL = DefaultGatewayURL
	}
	if b.Payout == nil {
		b.Payout = &Payout{}
	}
	if b.Payout.MaxAttempts <= 0 {
		b.Payout.MaxAttempts = DefaultMaxAttempts
	}
	if b.Payout.CronLimit <= 0 {
		b.Payout.CronLimit = DefaultCronLimit
	}
	if b.Payout.Currency == "" {
		b.Payout.Currency = DefaultCurrency
	}
	if b.Alert == nil {
		b.Alert = &Alert{}
	}
	if b.Messaging == nil {
		b.Messaging = &Messaging{}
	}
	if b.Messaging.Topic == "" {
		b.Messaging.Topic = DefaultTopic
	}
	if b.Cron == nil {
		b.Cron = &Cron{}
	}
	if b.Cron.DisburseSpec == "" {
		b.Cron.DisburseSpec = "0 */10 * * * *"
	}
	if b.Cron.GenerateSpec == "" {
		b.Cron.GenerateSpec = "0 0 1 * * *"
	}
	if b.Log == nil {
		b.Log = &Log{Level: "info", Output: "stdout"}
	}
}

// ApplyEnv 用环境变量覆盖配置项
func (b *Bootstrap) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("DATABASE_SOURCE", &b.Data.Database.Source)
	str("REDIS_ADDR", &b.Data.Redis.Addr)
	str("GATEWAY_BASE_URL", &b.Gateway.BaseURL)
	str("GATEWAY_ACCESS_TOKEN", &b.Gateway.AccessToken)
	str("CRON_SECRET", &b.Payout.CronSecret)
	str("PAYOUT_ALERT_WEBHOOK_URL", &b.Alert.WebhookURL)

	if v, ok := lookup("PAYOUT_TRANSFERS_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PAYOUT_TRANSFERS_ENABLED: %w", err)
		}
		b.Payout.TransfersEnabled = enabled
	}
	for key, dst := range map[string]*int{
		"PAYOUT_MAX_ATTEMPTS": &b.Payout.MaxAttempts,
		"CRON_PAYOUT_LIMIT":   &b.Payout.CronLimit,
	} {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: must be a positive integer, got %q", key, v)
		}
		*dst = n
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		b.Messaging.Brokers = strings.Split(v, ",")
	}
	return nil
}
