package core

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/GraphCrawl/internal/crawlers"
	"github.com/RecoveryAshes/GraphCrawl/internal/models"
	"github.com/RecoveryAshes/GraphCrawl/internal/utils"
)

// BatchCrawler 批量遍历器
// 按顺序对多个种子URL执行独立的BFS遍历,每个种子的结果写入独立子目录
type BatchCrawler struct {
	config         models.CrawlConfig
	outputDir      string
	batchDelay     time.Duration
	continueOnErr  bool
	headerProvider models.HeaderProvider
	memGuard       *crawlers.MemoryGuard
}

// BatchResult 单个种子的遍历结果
type BatchResult struct {
	URL         string
	Success     bool
	Error       error
	Stats       models.CrawlStats
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量遍历摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	TotalNodes    int
	TotalEdges    int
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchCrawler 创建批量遍历器
func NewBatchCrawler(config models.CrawlConfig, outputDir string, batchDelay int, continueOnErr bool, headerProvider models.HeaderProvider, memGuard *crawlers.MemoryGuard) *BatchCrawler {
	return &BatchCrawler{
		config:         config,
		outputDir:      outputDir,
		batchDelay:     time.Duration(batchDelay) * time.Second,
		continueOnErr:  continueOnErr,
		headerProvider: headerProvider,
		memGuard:       memGuard,
	}
}

// CrawlBatch 批量遍历URL列表
func (bc *BatchCrawler) CrawlBatch(urls []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量遍历: %d个种子URL", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	bar := utils.NewProgressBar(len(urls), "批量遍历")
	startTime := time.Now()

	for i, seedURL := range urls {
		utils.Infof("\n==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("种子URL: %s", seedURL)

		// 执行单个种子的遍历
		result := bc.crawlSingleSeed(seedURL)
		summary.Results = append(summary.Results, result)
		_ = bar.Add(1)

		// 更新统计
		if result.Success {
			summary.SuccessCount++
			summary.TotalNodes += result.Stats.Nodes
			summary.TotalEdges += result.Stats.Edges
		} else {
			summary.FailCount++
			utils.Errorf("❌ 遍历失败: %v", result.Error)

			// 如果不继续处理错误,则停止
			if !bc.continueOnErr {
				utils.Warn("批量遍历中止 (--continue-on-error=false)")
				break
			}
		}

		// 批量延迟(最后一个URL不需要延迟)
		if i < len(urls)-1 && bc.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个种子...", bc.batchDelay.Seconds())
			time.Sleep(bc.batchDelay)
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()

	// 显示批量遍历摘要
	bc.printSummary(summary)

	return summary, nil
}

// crawlSingleSeed 遍历单个种子URL
// 每个种子使用独立的引擎实例和输出子目录 (output/<domain>/)
func (bc *BatchCrawler) crawlSingleSeed(seedURL string) BatchResult {
	result := BatchResult{
		URL:         seedURL,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	domain, err := utils.ExtractDomain(seedURL)
	if err != nil {
		result.Error = fmt.Errorf("解析种子URL失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	checkpointer, err := utils.NewGEXFCheckpointer(filepath.Join(bc.outputDir, domain))
	if err != nil {
		result.Error = fmt.Errorf("创建检查点器失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	fetcher := crawlers.NewCollyFetcher(bc.config.Timeout, bc.headerProvider)

	engine, err := NewEngine(bc.config, fetcher, checkpointer, bc.memGuard)
	if err != nil {
		result.Error = fmt.Errorf("创建遍历引擎失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	run, err := engine.Crawl(seedURL)
	if err != nil {
		result.Error = fmt.Errorf("遍历失败: %w", err)
		if run != nil {
			result.Stats = run.Stats
		}
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	// 成功,生成运行报告
	graphFile, seqFile := engine.OutputFiles()
	reporter := utils.NewReporter(checkpointer.OutputDir())
	if err := reporter.GenerateReport(run, engine.FailedURLs(), graphFile, seqFile); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}

	result.Success = true
	result.Stats = run.Stats
	result.Duration = time.Since(startTime).Seconds()

	return result
}

// printSummary 打印批量遍历摘要
func (bc *BatchCrawler) printSummary(summary *BatchSummary) {
	utils.Info("\n==================================================")
	utils.Info("📊 批量遍历摘要")
	utils.Info("==================================================")
	utils.Infof("总种子数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📦 总节点数: %d", summary.TotalNodes)
	utils.Infof("📦 总边数: %d", summary.TotalEdges)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	// 显示失败的URL
	if summary.FailCount > 0 {
		utils.Warn("\n失败的种子URL:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.URL, result.Error)
			}
		}
	}
}
