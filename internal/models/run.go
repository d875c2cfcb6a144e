package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// RunStatus 爬取运行状态
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"      // 未开始
	RunStatusRunning   RunStatus = "running"   // 遍历中
	RunStatusDone      RunStatus = "done"      // 已完成 (队列耗尽或达到节点上限)
	RunStatusFailed    RunStatus = "failed"    // 失败 (持久化错误等致命问题)
	RunStatusCancelled RunStatus = "cancelled" // 已取消
)

// CrawlConfig 爬取配置
type CrawlConfig struct {
	MaxNodes           int      `json:"max_nodes" mapstructure:"max_nodes"`                     // 访问节点上限 (0=不限制)
	CheckpointInterval int      `json:"checkpoint_interval" mapstructure:"checkpoint_interval"` // 检查点间隔 (默认:5000)
	DelayMin           int      `json:"delay_min" mapstructure:"delay_min"`                     // 随机休眠下限(秒) (默认:0)
	DelayMax           int      `json:"delay_max" mapstructure:"delay_max"`                     // 随机休眠上限(秒) (默认:3)
	Timeout            int      `json:"timeout" mapstructure:"timeout"`                         // HTTP请求超时(秒) (默认:30)
	DomainSuffixes     []string `json:"domain_suffixes" mapstructure:"domain_suffixes"`         // 允许的域名后缀
	IgnoredExtensions  []string `json:"ignored_extensions" mapstructure:"ignored_extensions"`   // 忽略的文件扩展名 (空=内置列表)
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.MaxNodes < 0 {
		return fmt.Errorf("节点上限不能为负数")
	}
	if c.CheckpointInterval < 1 {
		return fmt.Errorf("检查点间隔必须大于0")
	}
	if c.DelayMin < 0 {
		return fmt.Errorf("休眠下限不能为负数")
	}
	if c.DelayMax < c.DelayMin {
		return fmt.Errorf("休眠上限不能小于休眠下限")
	}
	if c.Timeout < 1 || c.Timeout > 300 {
		return fmt.Errorf("超时必须在1-300秒之间")
	}
	if len(c.DomainSuffixes) == 0 {
		return fmt.Errorf("至少需要一个域名后缀")
	}
	return nil
}

// CrawlStats 爬取统计
type CrawlStats struct {
	VisitedURLs   int     `json:"visited_urls"`   // 已标记访问的URL数 (含队列中未处理的)
	ProcessedURLs int     `json:"processed_urls"` // 已处理的URL数 (BFS序列长度)
	FailedFetches int     `json:"failed_fetches"` // 抓取失败的URL数
	Nodes         int     `json:"nodes"`          // 图节点数
	Edges         int     `json:"edges"`          // 图边数
	Checkpoints   int     `json:"checkpoints"`    // 写出的中间检查点数
	Duration      float64 `json:"duration"`       // 总耗时(秒)
}

// CrawlRun 一次爬取运行
type CrawlRun struct {
	// 基本信息
	ID          string     `json:"id"`                     // 运行唯一ID (UUID)
	RootURL     string     `json:"root_url"`               // 种子URL
	Domain      string     `json:"domain"`                 // 种子URL的域名
	CreatedAt   time.Time  `json:"created_at"`             // 创建时间
	StartedAt   *time.Time `json:"started_at,omitempty"`   // 开始时间
	CompletedAt *time.Time `json:"completed_at,omitempty"` // 完成时间

	// 配置快照
	Config CrawlConfig `json:"config"`

	// 执行状态
	Status RunStatus `json:"status"`

	// 统计信息
	Stats CrawlStats `json:"stats"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewCrawlRun 创建新的爬取运行
func NewCrawlRun(rootURL string, config CrawlConfig) (*CrawlRun, error) {
	if err := ValidateURL(rootURL); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	parsed, _ := url.Parse(rootURL)

	return &CrawlRun{
		ID:        uuid.New().String(),
		RootURL:   rootURL,
		Domain:    parsed.Host,
		CreatedAt: time.Now(),
		Config:    config,
		Status:    RunStatusIdle,
		Stats:     CrawlStats{},
	}, nil
}

// ToJSON 序列化为JSON
func (r *CrawlRun) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CrawlRun) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}

// RunReport 爬取运行报告
type RunReport struct {
	// 运行信息
	RunID   string `json:"run_id"`
	RootURL string `json:"root_url"`
	Domain  string `json:"domain"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats CrawlStats `json:"stats"`

	// 失败URL列表
	FailedURLs []FailedURLInfo `json:"failed_urls"`

	// 输出文件
	GraphFile   string `json:"graph_file"`   // 最终GEXF文件路径
	BFSSeqFile  string `json:"bfs_seq_file"` // BFS序列文件路径

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// FailedURLInfo 抓取失败的URL信息
type FailedURLInfo struct {
	URL      string `json:"url"`
	ErrorMsg string `json:"error_msg"`
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}
