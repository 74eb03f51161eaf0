package database

import (
	"context"
	"fmt"
	"time"

	"bnb-dashboard/pkg/types"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Manager is the MySQL-backed candle cache used when the exchange is unreachable.
type Manager struct {
	db     *gorm.DB
	config types.MySQLConfig
}

// Candle is one cached exchange candle. (symbol, interval, open_time) is unique.
type Candle struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Symbol    string    `gorm:"type:varchar(20);not null;uniqueIndex:uk_symbol_interval_time,priority:1" json:"symbol"`
	Interval  string    `gorm:"type:varchar(10);not null;uniqueIndex:uk_symbol_interval_time,priority:2" json:"interval"`
	OpenTime  int64     `gorm:"not null;uniqueIndex:uk_symbol_interval_time,priority:3" json:"open_time"` // epoch ms
	Open      float64   `gorm:"type:decimal(20,8);not null" json:"open"`
	High      float64   `gorm:"type:decimal(20,8);not null" json:"high"`
	Low       float64   `gorm:"type:decimal(20,8);not null" json:"low"`
	Close     float64   `gorm:"type:decimal(20,8);not null" json:"close"`
	Volume    float64   `gorm:"type:decimal(28,8);not null" json:"volume"`
	CreatedAt time.Time `json:"created_at"`
}

func (Candle) TableName() string {
	return "market_candles"
}

// DSN builds the go-sql-driver connection string.
func DSN(config types.MySQLConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
	)
}

// NewManager connects, sizes the pool and migrates the schema.
func NewManager(config types.MySQLConfig) (*Manager, error) {
	db, err := gorm.Open(mysql.Open(DSN(config)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	manager := &Manager{db: db, config: config}
	if err := manager.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	zap.L().Info("✅ MySQL connected",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("database", config.Database))

	return manager, nil
}

func (m *Manager) AutoMigrate() error {
	return m.db.AutoMigrate(&Candle{})
}

// ToRows converts exchange candles into cache rows.
func ToRows(symbol, interval string, candles []types.Candle) []Candle {
	rows := make([]Candle, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, Candle{
			Symbol:   symbol,
			Interval: interval,
			OpenTime: c.Timestamp,
			Open:     c.Open,
			High:     c.High,
			Low:      c.Low,
			Close:    c.Close,
			Volume:   c.Volume,
		})
	}
	return rows
}

// FromRows converts cache rows back into candles, preserving order.
func FromRows(rows []Candle) []types.Candle {
	candles := make([]types.Candle, 0, len(rows))
	for _, r := range rows {
		candles = append(candles, types.Candle{
			Timestamp: r.OpenTime,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	return candles
}

// SaveCandles inserts candles, leaving rows that already exist untouched.
func (m *Manager) SaveCandles(ctx context.Context, symbol, interval string, candles []types.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	rows := ToRows(symbol, interval, candles)
	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 200).Error
	if err != nil {
		return fmt.Errorf("save %d candles for %s/%s: %w", len(rows), symbol, interval, err)
	}
	return nil
}

// RecentCandles returns the newest limit candles for symbol and interval, oldest first.
func (m *Manager) RecentCandles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	var rows []Candle
	err := m.db.WithContext(ctx).
		Where("symbol = ? AND `interval` = ?", symbol, interval).
		Order("open_time DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query candles for %s/%s: %w", symbol, interval, err)
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return FromRows(rows), nil
}

// PurgeBefore deletes candles opened before cutoff.
func (m *Manager) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := m.db.WithContext(ctx).Where("open_time < ?", cutoff.UnixMilli()).Delete(&Candle{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge candles: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (m *Manager) Health(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
