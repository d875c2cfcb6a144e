package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/GraphCrawl/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl    models.CrawlConfig `mapstructure:"crawl"`
	Logging  LoggingConfig      `mapstructure:"logging"`
	Output   OutputConfig       `mapstructure:"output"`
	Resource ResourceConfig     `mapstructure:"resource"`
	Headers  map[string]string  `mapstructure:"headers"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir          string `mapstructure:"base_dir"`
	DomainSeparation bool   `mapstructure:"domain_separation"`
}

// ResourceConfig 资源限制配置
type ResourceConfig struct {
	// MinAvailableMemoryMB 可用内存低于此值时终止遍历 (MB, 0=不限制)
	MinAvailableMemoryMB int `mapstructure:"min_available_memory_mb"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".graphcrawl"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取配置默认值
	v.SetDefault("crawl.max_nodes", 0)
	v.SetDefault("crawl.checkpoint_interval", 5000)
	v.SetDefault("crawl.delay_min", 0)
	v.SetDefault("crawl.delay_max", 3)
	v.SetDefault("crawl.timeout", 30)
	v.SetDefault("crawl.domain_suffixes", []string{"ontariotechu.ca", "uoit.ca"})
	v.SetDefault("crawl.ignored_extensions", []string{})

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.domain_separation", true)

	// 资源配置默认值
	v.SetDefault("resource.min_available_memory_mb", 0)
}

// GetCrawlConfig 从配置中提取爬取配置
func (c *Config) GetCrawlConfig() models.CrawlConfig {
	return c.Crawl
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(
	maxNodes int,
	checkpointInterval int,
	delayMin int,
	delayMax int,
	timeout int,
	domainSuffixes []string,
) {
	if maxNodes > 0 {
		c.Crawl.MaxNodes = maxNodes
	}
	if checkpointInterval > 0 {
		c.Crawl.CheckpointInterval = checkpointInterval
	}
	if delayMin >= 0 {
		c.Crawl.DelayMin = delayMin
	}
	if delayMax >= 0 {
		c.Crawl.DelayMax = delayMax
	}
	if timeout > 0 {
		c.Crawl.Timeout = timeout
	}
	if len(domainSuffixes) > 0 {
		c.Crawl.DomainSuffixes = domainSuffixes
	}
}
