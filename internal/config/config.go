package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jengzang/heatmap-viewer-go/internal/interaction"
	"github.com/jengzang/heatmap-viewer-go/internal/viewer"
	"github.com/jengzang/heatmap-viewer-go/internal/viewport"
)

// Config 应用配置
type Config struct {
	Port           string        `yaml:"port"`
	DBPath         string        `yaml:"db_path"`
	JWTSecret      string        `yaml:"jwt_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	Grid           GridConfig    `yaml:"grid"`
	Zoom           ZoomConfig    `yaml:"zoom"`
	Selection      SelectConfig  `yaml:"selection"`
	LevelOfDetail  bool          `yaml:"level_of_detail"`
	FrameInterval  time.Duration `yaml:"frame_interval"`
	TickPrecision  int           `yaml:"tick_precision"`
	RateLimit      RateConfig    `yaml:"rate_limit"`
	Kafka          KafkaConfig   `yaml:"kafka"`
	Log            LogConfig     `yaml:"log"`
	MaxViewers     int           `yaml:"max_viewers"`
	MaxSampleCount int           `yaml:"max_sample_count"`
	MaxContainer   float64       `yaml:"max_container"` // 视图宽高上限（像素）
}

// GridConfig 网格尺寸（像素）
type GridConfig struct {
	ColumnWidth float64 `yaml:"column_width"`
	RowHeight   float64 `yaml:"row_height"`
	PaddingLeft float64 `yaml:"padding_left"`
	PaddingTop  float64 `yaml:"padding_top"`
}

// ZoomConfig 缩放步长和范围
type ZoomConfig struct {
	Step float64 `yaml:"step"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// SelectConfig 框选行为
type SelectConfig struct {
	Trigger         string `yaml:"trigger"`
	ZoomToSelection bool   `yaml:"zoom_to_selection"`
}

// RateConfig 每个 IP 在窗口内允许的请求数
type RateConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// KafkaConfig 为空时不发布事件
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether a broker list is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// LogConfig 日志级别和格式（text / json）
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Port:       ":8080",
		DBPath:     "./data/heatmap.db",
		JWTSecret:  "your-secret-key-change-in-production",
		SessionTTL: 30 * time.Minute,
		Grid: GridConfig{
			ColumnWidth: 100,
			RowHeight:   25,
			PaddingLeft: 50,
			PaddingTop:  30,
		},
		Zoom: ZoomConfig{
			Step: viewport.DefaultLimits().Step,
			Min:  viewport.DefaultLimits().Min,
			Max:  viewport.DefaultLimits().Max,
		},
		Selection:      SelectConfig{Trigger: string(interaction.TriggerShift)},
		LevelOfDetail:  true,
		FrameInterval:  16 * time.Millisecond,
		TickPrecision:  2,
		RateLimit:      RateConfig{Requests: 600, Window: time.Minute},
		Kafka:          KafkaConfig{Topic: "heatmap.viewer"},
		Log:            LogConfig{Level: "info", Format: "text"},
		MaxViewers:     256,
		MaxSampleCount: 100000,
		MaxContainer:   8192,
	}
}

// Load 加载配置：默认值 → HEATMAP_CONFIG 指向的 YAML 文件 → 环境变量
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("HEATMAP_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		if !strings.Contains(port, ":") {
			port = ":" + port
		}
		c.Port = port
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		c.DBPath = dbPath
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWTSecret = secret
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		c.Kafka.Topic = topic
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
	if n := os.Getenv("RATE_LIMIT"); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT: %w", err)
		}
		c.RateLimit.Requests = v
	}
	return nil
}

// Validate rejects settings the viewer cannot work with.
func (c *Config) Validate() error {
	if c.Grid.ColumnWidth <= 0 || c.Grid.RowHeight <= 0 {
		return fmt.Errorf("grid cell size must be positive, got %vx%v", c.Grid.ColumnWidth, c.Grid.RowHeight)
	}
	if c.Grid.PaddingLeft < 0 || c.Grid.PaddingTop < 0 {
		return fmt.Errorf("grid padding must not be negative")
	}
	if c.Zoom.Step <= 1 {
		return fmt.Errorf("zoom step must be greater than 1, got %v", c.Zoom.Step)
	}
	if c.Zoom.Min <= 0 || c.Zoom.Max < c.Zoom.Min {
		return fmt.Errorf("invalid zoom range [%v, %v]", c.Zoom.Min, c.Zoom.Max)
	}
	if _, err := interaction.ParseTrigger(c.Selection.Trigger); err != nil {
		return err
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %v", c.RateLimit.Window)
	}
	if !(c.MaxContainer > 0) {
		return fmt.Errorf("max_container must be positive, got %v", c.MaxContainer)
	}
	if c.TickPrecision < 0 {
		return fmt.Errorf("tick_precision must not be negative")
	}
	return nil
}

// Viewer builds the viewer settings for new sessions.
func (c *Config) Viewer() viewer.Config {
	vc := viewer.DefaultConfig()
	vc.ColumnWidth = c.Grid.ColumnWidth
	vc.RowHeight = c.Grid.RowHeight
	vc.PaddingLeft = c.Grid.PaddingLeft
	vc.PaddingTop = c.Grid.PaddingTop
	vc.FrameInterval = c.FrameInterval
	vc.Axes.Precision = c.TickPrecision

	trigger, _ := interaction.ParseTrigger(c.Selection.Trigger)
	vc.Interaction = interaction.Config{
		Limits:          viewport.Limits{Step: c.Zoom.Step, Min: c.Zoom.Min, Max: c.Zoom.Max},
		Trigger:         trigger,
		ZoomToSelection: c.Selection.ZoomToSelection,
		LevelOfDetail:   c.LevelOfDetail,
	}
	return vc
}
