package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/GraphCrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// GenerateReport 生成爬取运行报告
func (r *Reporter) GenerateReport(run *models.CrawlRun, failedURLs []models.FailedURLInfo, graphFile string, bfsSeqFile string) error {
	reportsDir := filepath.Join(r.outputDir, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	report := models.RunReport{
		RunID:      run.ID,
		RootURL:    run.RootURL,
		Domain:     run.Domain,
		Stats:      run.Stats,
		FailedURLs: failedURLs,
		GraphFile:  graphFile,
		BFSSeqFile: bfsSeqFile,
		Config:     run.Config,
	}
	if run.StartedAt != nil {
		report.StartTime = *run.StartedAt
	}
	if run.CompletedAt != nil {
		report.EndTime = *run.CompletedAt
	}
	report.Duration = run.Stats.Duration

	// 保存主报告
	if err := r.saveJSONReport(reportsDir, "crawl_report.json", report); err != nil {
		return err
	}

	// 保存失败URL列表
	if err := r.saveJSONReport(reportsDir, "failed_urls.json", failedURLs); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	filepath := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(filepath, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", filepath)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
