package conf

import (
	"fmt"
	"time"
)

type Bootstrap struct {
	Server    *Server    `yaml:"server" json:"server"`
	Data      *Data      `yaml:"data" json:"data"`
	Gateway   *Gateway   `yaml:"gateway" json:"gateway"`
	Payout    *Payout    `yaml:"payout" json:"payout"`
	Alert     *Alert     `yaml:"alert" json:"alert"`
	Messaging *Messaging `yaml:"messaging" json:"messaging"`
	Cron      *Cron      `yaml:"cron" json:"cron"`
	Log       *Log       `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
	Grpc struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"grpc" json:"grpc"`
}

type Data struct {
	Database struct {
		Driver          string `yaml:"driver" json:"driver"` // mysql, postgres, sqlite
		Source          string `yaml:"source" json:"source"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
		AutoMigrate     bool   `yaml:"auto_migrate" json:"auto_migrate"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
		DialTimeout  string `yaml:"dial_timeout" json:"dial_timeout"`
	} `yaml:"redis" json:"redis"`
}

// Gateway 外部支付网关配置
type Gateway struct {
	BaseURL     string `yaml:"base_url" json:"base_url"`
	AccessToken string `yaml:"access_token" json:"access_token"`
	Timeout     string `yaml:"timeout" json:"timeout"`
	// NotificationURL 创建 preference 时回传给网关的 webhook 地址
	NotificationURL string `yaml:"notification_url" json:"notification_url"`
}

// Payout 供应商打款配置
type Payout struct {
	TransfersEnabled bool   `yaml:"transfers_enabled" json:"transfers_enabled"`
	MaxAttempts      int    `yaml:"max_attempts" json:"max_attempts"`
	CronLimit        int    `yaml:"cron_limit" json:"cron_limit"`
	CronSecret       string `yaml:"cron_secret" json:"cron_secret"`
	Currency         string `yaml:"currency" json:"currency"`
	TransferTimeout  string `yaml:"transfer_timeout" json:"transfer_timeout"`
}

// Alert 告警 webhook 配置，URL 为空时不发送
type Alert struct {
	WebhookURL string `yaml:"webhook_url" json:"webhook_url"`
	Timeout    string `yaml:"timeout" json:"timeout"`
}

// Messaging payout 事件发布配置，Brokers 为空时使用进程内 gochannel
type Messaging struct {
	Brokers []string `yaml:"brokers" json:"brokers"`
	Topic   string   `yaml:"topic" json:"topic"`
}

type Cron struct {
	DisburseSpec string `yaml:"disburse_spec" json:"disburse_spec"`
	GenerateSpec string `yaml:"generate_spec" json:"generate_spec"`
}

type Log struct {
	Level      string `yaml:"level" json:"level"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Validate validates the configuration
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Gateway == nil || b.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	if b.Payout == nil {
		return fmt.Errorf("payout configuration is required")
	}
	if b.Payout.MaxAttempts < 1 {
		return fmt.Errorf("payout.max_attempts must be positive")
	}
	if b.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	for name, d := range map[string]string{
		"server.http.timeout":     b.Server.Http.Timeout,
		"gateway.timeout":         b.Gateway.Timeout,
		"payout.transfer_timeout": b.Payout.TransferTimeout,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, d)
		}
	}
	return nil
}

// Duration 解析时长字符串，为空或非法时返回 def
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
