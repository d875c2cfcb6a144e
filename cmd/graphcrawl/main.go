package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/RecoveryAshes/GraphCrawl/internal/core"
	"github.com/RecoveryAshes/GraphCrawl/internal/crawlers"
	"github.com/RecoveryAshes/GraphCrawl/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 遍历参数
	targetURL          string
	urlFile            string
	maxNodes           int
	checkpointInterval int
	delayMin           int
	delayMax           int
	timeout            int
	domainSuffixes     []string
	outputDir          string

	// 批量处理参数
	batchDelay      int
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "graphcrawl",
	Short: "网站链接图BFS爬取工具",
	Long: `GraphCrawl - 网站链接有向图构建工具 (Go版本)

从种子URL开始逐层遍历站内链接,将发现的页面和链接关系
构建为有向图,并导出为GEXF格式供图分析工具使用:
  • BFS逐层遍历,严格去重
  • 域名后缀白名单控制遍历范围
  • 静态资源扩展名过滤
  • 定期检查点快照 + BFS访问序列导出
  • 批量种子URL处理
  • 自定义HTTP请求头

使用示例:
  # 单种子遍历
  graphcrawl -u https://ontariotechu.ca/

  # 限制节点数并自定义头部
  graphcrawl -u https://ontariotechu.ca/ --max-nodes 1000 -H "User-Agent: MyBot/1.0"

  # 批量种子
  graphcrawl -f seeds.txt -o output

  # 验证配置
  graphcrawl --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 设置信号处理(Ctrl+C优雅退出)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			os.Exit(0)
		}()

		// 加载应用配置
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 创建HTTP头部管理器
		headerManager, err := core.NewHeaderManager(appConfig.Headers, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证HTTP头部配置...")
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			// 显示合并后的头部(脱敏)
			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		// 如果没有提供任何参数,显示帮助信息
		if targetURL == "" && urlFile == "" {
			return cmd.Help()
		}

		// 验证参数
		if err := ValidateFlags(targetURL, maxNodes, checkpointInterval, delayMin, delayMax, timeout); err != nil {
			return err
		}

		// 命令行参数覆盖配置文件
		appConfig.MergeCLIFlags(maxNodes, checkpointInterval, delayMin, delayMax, timeout, domainSuffixes)
		crawlConfig := appConfig.GetCrawlConfig()

		// 内存保护器在单次和批量模式间共享
		memGuard := crawlers.NewMemoryGuard(appConfig.Resource.MinAvailableMemoryMB)

		// 检查是否为批量处理模式
		if urlFile != "" {
			// 批量处理模式
			urls, err := utils.ReadURLsFromFile(urlFile)
			if err != nil {
				return fmt.Errorf("读取URL文件失败: %w", err)
			}

			// 创建批量遍历器
			batchCrawler := core.NewBatchCrawler(crawlConfig, outputDir, batchDelay, continueOnError, headerManager, memGuard)

			// 执行批量遍历
			if _, err := batchCrawler.CrawlBatch(urls); err != nil {
				return fmt.Errorf("批量遍历失败: %w", err)
			}

			utils.Info("✨ 批量遍历任务完成!")
			return nil
		}

		// 单种子遍历模式
		domain, err := utils.ExtractDomain(targetURL)
		if err != nil {
			return fmt.Errorf("解析目标URL失败: %w", err)
		}

		checkpointer, err := utils.NewGEXFCheckpointer(filepath.Join(outputDir, domain))
		if err != nil {
			return fmt.Errorf("创建检查点器失败: %w", err)
		}

		fetcher := crawlers.NewCollyFetcher(crawlConfig.Timeout, headerManager)

		engine, err := core.NewEngine(crawlConfig, fetcher, checkpointer, memGuard)
		if err != nil {
			return fmt.Errorf("创建遍历引擎失败: %w", err)
		}

		run, err := engine.Crawl(targetURL)
		if err != nil {
			return fmt.Errorf("遍历失败: %w", err)
		}

		// 生成运行报告
		graphFile, seqFile := engine.OutputFiles()
		reporter := utils.NewReporter(checkpointer.OutputDir())
		if err := reporter.GenerateReport(run, engine.FailedURLs(), graphFile, seqFile); err != nil {
			utils.Warnf("生成报告失败: %v", err)
		}

		// 显示统计结果
		stats := run.Stats
		fmt.Println("\n==================================================")
		fmt.Println("📊 遍历统计")
		fmt.Println("==================================================")
		fmt.Printf("✅ 已访问URL数: %d\n", stats.VisitedURLs)
		fmt.Printf("✅ 已处理URL数: %d\n", stats.ProcessedURLs)
		fmt.Printf("✅ 图节点数: %d\n", stats.Nodes)
		fmt.Printf("✅ 图边数: %d\n", stats.Edges)
		fmt.Printf("💾 中间检查点数: %d\n", stats.Checkpoints)
		fmt.Printf("❌ 抓取失败数: %d\n", stats.FailedFetches)
		fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
		fmt.Println("==================================================")

		utils.Info("✨ 遍历任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("GraphCrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 网站链接图BFS爬取工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 遍历参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "种子URL (必需,除非使用 --url-file)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含种子URL列表的文件路径")
	rootCmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "访问节点上限 (0=不限制)")
	rootCmd.Flags().IntVar(&checkpointInterval, "checkpoint-interval", 0, "检查点间隔 (默认5000)")
	rootCmd.Flags().IntVar(&delayMin, "delay-min", -1, "随机休眠下限(秒)")
	rootCmd.Flags().IntVar(&delayMax, "delay-max", -1, "随机休眠上限(秒)")
	rootCmd.Flags().IntVar(&timeout, "timeout", 0, "HTTP请求超时(秒)")
	rootCmd.Flags().StringSliceVar(&domainSuffixes, "domains", []string{}, "允许的域名后缀,可多次指定")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "output", "输出目录")

	// 批量处理参数
	rootCmd.Flags().IntVar(&batchDelay, "batch-delay", 1, "批量处理种子间延迟(秒)")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
