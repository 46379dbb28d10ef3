package data

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/data/model"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewDB,
	NewRedis,
	NewRedsync,
	NewOrderRepo,
	NewPayoutRepo,
	NewPaymentLogRepo,
	NewSupplierAccountRepo,
	NewLocker,
	NewGatewayClient,
	NewTransferClient,
	NewAlertClient,
	NewEventPublisher,
	wire.Bind(new(biz.Transaction), new(*Data)),
)

// Data .
type Data struct {
	db  *gorm.DB
	rdb *redis.Client
}

type contextTxKey struct{}

// Exec 执行事务，事务对象通过 ctx 传给各仓库
func (d *Data) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ctx = context.WithValue(ctx, contextTxKey{}, tx)
		return fn(ctx)
	})
}

// DB 返回 ctx 中的事务，不在事务中时返回普通连接
func (d *Data) DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return d.db.WithContext(ctx)
}

// NewData .
func NewData(c *conf.Bootstrap, logger log.Logger, db *gorm.DB, rdb *redis.Client) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	cleanup := func() {
		helper.Info("closing the data resources")
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	if c != nil && c.Data != nil && c.Data.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			cleanup()
			return nil, nil, err
		}
		helper.Info("database schema migrated")
	}
	return &Data{db: db, rdb: rdb}, cleanup, nil
}

// Migrate 同步表结构
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// NewDB .
func NewDB(c *conf.Bootstrap) (*gorm.DB, error) {
	if c == nil || c.Data == nil || c.Data.Database.Source == "" {
		return nil, fmt.Errorf("database source is required")
	}
	dbConf := c.Data.Database

	var dialector gorm.Dialector
	switch dbConf.Driver {
	case "", "mysql":
		dialector = mysql.Open(dbConf.Source)
	case "postgres":
		dialector = postgres.Open(dbConf.Source)
	case "sqlite":
		dialector = sqlite.Open(dbConf.Source)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbConf.Driver)
	}

	// TranslateError 让唯一索引冲突统一返回 gorm.ErrDuplicatedKey
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dbConf.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConf.MaxIdleConns)
	}
	if dbConf.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConf.MaxOpenConns)
	}
	if d := conf.Duration(dbConf.ConnMaxLifetime, 0); d > 0 {
		sqlDB.SetConnMaxLifetime(d)
	}
	return db, nil
}

// NewRedis 未配置地址时返回 nil，锁退化为进程内实现
func NewRedis(c *conf.Bootstrap) *redis.Client {
	if c == nil || c.Data == nil || c.Data.Redis.Addr == "" {
		return nil
	}
	redisConf := c.Data.Redis
	return redis.NewClient(&redis.Options{
		Addr:         redisConf.Addr,
		Password:     redisConf.Password,
		DB:           int(redisConf.Db),
		ReadTimeout:  conf.Duration(redisConf.ReadTimeout, 0),
		WriteTimeout: conf.Duration(redisConf.WriteTimeout, 0),
		DialTimeout:  conf.Duration(redisConf.DialTimeout, 5*time.Second),
	})
}

// NewRedsync 创建 redsync 实例
func NewRedsync(rdb *redis.Client) *redsync.Redsync {
	if rdb == nil {
		return nil
	}
	pool := goredis.NewPool(rdb)
	return redsync.New(pool)
}
