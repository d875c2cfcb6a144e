package core

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/RecoveryAshes/GraphCrawl/internal/crawlers"
	"github.com/RecoveryAshes/GraphCrawl/internal/models"
	"github.com/RecoveryAshes/GraphCrawl/internal/utils"
)

// LinkFetcher 链接抓取器接口
// 抓取单个页面并返回其中所有<a>标签的原始href值
type LinkFetcher interface {
	FetchLinks(rawURL string) ([]string, error)
}

// Checkpointer 检查点持久化接口
type Checkpointer interface {
	// SnapshotGraph 保存中间图快照,返回文件路径
	SnapshotGraph(graph *models.DiGraph, visitedCount int) (string, error)

	// FinalizeRun 保存最终图和BFS访问序列,返回两个文件路径
	// 最终图文件名以已访问节点总数标记
	FinalizeRun(graph *models.DiGraph, bfsSeq []string, visitedCount int) (string, string, error)
}

// PersistenceError 持久化错误
// 检查点或最终结果写入失败属于致命错误,会终止整个运行
type PersistenceError struct {
	Op    string // 操作描述
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("持久化失败 [%s]: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Engine BFS遍历引擎
// 从种子URL开始逐层遍历站内链接,构建有向链接图
type Engine struct {
	config       models.CrawlConfig
	classifier   *crawlers.URLClassifier
	fetcher      LinkFetcher
	checkpointer Checkpointer
	memGuard     *crawlers.MemoryGuard

	// 每次Crawl调用重新初始化的遍历状态
	frontier   *crawlers.Frontier
	visited    *crawlers.VisitedSet
	graph      *models.DiGraph
	bfsSeq     []string
	failedURLs []models.FailedURLInfo

	// 最终产物文件路径 (FinalizeRun成功后填充)
	graphFile  string
	bfsSeqFile string
}

// NewEngine 创建遍历引擎
func NewEngine(config models.CrawlConfig, fetcher LinkFetcher, checkpointer Checkpointer, memGuard *crawlers.MemoryGuard) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("链接抓取器不能为空")
	}
	if checkpointer == nil {
		return nil, fmt.Errorf("检查点器不能为空")
	}

	return &Engine{
		config:       config,
		classifier:   crawlers.NewURLClassifier(config.DomainSuffixes, config.IgnoredExtensions),
		fetcher:      fetcher,
		checkpointer: checkpointer,
		memGuard:     memGuard,
	}, nil
}

// Graph 返回当前构建的链接图
func (e *Engine) Graph() *models.DiGraph {
	return e.graph
}

// BFSSequence 返回已处理URL的BFS访问序列
func (e *Engine) BFSSequence() []string {
	seq := make([]string, len(e.bfsSeq))
	copy(seq, e.bfsSeq)
	return seq
}

// FailedURLs 返回抓取失败的URL列表
func (e *Engine) FailedURLs() []models.FailedURLInfo {
	return e.failedURLs
}

// OutputFiles 返回最终图文件和BFS序列文件的路径
func (e *Engine) OutputFiles() (graphFile, bfsSeqFile string) {
	return e.graphFile, e.bfsSeqFile
}

// Crawl 从种子URL开始执行BFS遍历
//
// 执行流程:
//  1. 验证种子URL,初始化遍历状态
//  2. 循环: 休眠 → 出队 → 抓取 → 分类邻居 → 建边/入队 → 检查点
//  3. 队列耗尽或达到节点上限后,保存最终图和BFS序列
//
// 抓取失败不中断遍历 (失败URL无出边);持久化失败是致命错误
func (e *Engine) Crawl(rootURL string) (*models.CrawlRun, error) {
	run, err := models.NewCrawlRun(rootURL, e.config)
	if err != nil {
		return nil, err
	}

	// 初始化遍历状态 (每次运行从零开始)
	e.frontier = crawlers.NewFrontier()
	e.visited = crawlers.NewVisitedSet()
	e.graph = models.NewDiGraph()
	e.bfsSeq = make([]string, 0)
	e.failedURLs = make([]models.FailedURLInfo, 0)

	now := time.Now()
	run.StartedAt = &now
	run.Status = models.RunStatusRunning

	utils.Infof("🚀 开始BFS遍历")
	utils.Infof("种子URL: %s", rootURL)
	utils.Infof("域名: %s", run.Domain)
	utils.Infof("节点上限: %d (0=不限制)", e.config.MaxNodes)
	utils.Infof("检查点间隔: %d", e.config.CheckpointInterval)

	// 种子URL直接标记已访问并入队
	e.visited.MarkIfNew(rootURL)
	e.frontier.Push(rootURL)

	if err := e.traverse(run); err != nil {
		e.fail(run, err)
		return run, err
	}

	// 保存最终图和BFS访问序列
	graphFile, seqFile, err := e.checkpointer.FinalizeRun(e.graph, e.bfsSeq, e.visited.Len())
	if err != nil {
		perr := &PersistenceError{Op: "最终结果", Cause: err}
		e.fail(run, perr)
		return run, perr
	}
	e.graphFile = graphFile
	e.bfsSeqFile = seqFile

	e.finish(run, models.RunStatusDone)

	utils.Infof("✅ 遍历完成")
	utils.Infof("已访问: %d, 已处理: %d, 抓取失败: %d", run.Stats.VisitedURLs, run.Stats.ProcessedURLs, run.Stats.FailedFetches)
	utils.Infof("图规模: %d 节点, %d 边", run.Stats.Nodes, run.Stats.Edges)
	utils.Infof("总耗时: %.2f秒", run.Stats.Duration)

	return run, nil
}

// traverse BFS主循环
func (e *Engine) traverse(run *models.CrawlRun) error {
	for !e.frontier.IsEmpty() {
		// 节点上限按已访问集合大小计算 (0=不限制)
		if e.config.MaxNodes > 0 && e.visited.Len() >= e.config.MaxNodes {
			utils.Infof("已访问节点数 %d 达到上限 %d,停止遍历", e.visited.Len(), e.config.MaxNodes)
			break
		}

		// 内存保护: 可用内存不足时提前终止
		if e.memGuard != nil && !e.memGuard.Check() {
			utils.Warnf("可用内存不足,提前终止遍历")
			break
		}

		current, err := e.frontier.Pop()
		if err != nil {
			return err
		}
		e.bfsSeq = append(e.bfsSeq, current)

		utils.Infof("🔍 处理 [序列%d 已访问%d 队列%d]: %s", len(e.bfsSeq), e.visited.Len(), e.frontier.Len(), current)

		// 抓取前的礼貌性随机休眠,每轮迭代都执行
		e.politenessSleep()

		hrefs, err := e.fetcher.FetchLinks(current)
		if err != nil {
			// 抓取失败不中断遍历,该URL没有出边
			utils.Warnf("抓取失败: %s - %v", current, err)
			e.failedURLs = append(e.failedURLs, models.FailedURLInfo{
				URL:      current,
				ErrorMsg: err.Error(),
			})
			run.Stats.FailedFetches++
			continue
		}

		if err := e.processNeighbors(run, current, hrefs); err != nil {
			return err
		}
	}
	return nil
}

// processNeighbors 对当前页面的每个href执行分类、建边和入队
// 返回错误仅当检查点持久化失败 (致命)
func (e *Engine) processNeighbors(run *models.CrawlRun, current string, hrefs []string) error {
	for _, href := range hrefs {
		// 忽略指向静态资源的链接
		if e.classifier.IsIgnoredExtension(href) {
			continue
		}

		// 相对路径按当前页面解析为绝对URL
		neighbor := e.classifier.ResolveRelative(current, href)
		if neighbor == "" {
			continue
		}

		// 域外链接不建边也不入队
		if !e.classifier.InScope(neighbor) {
			continue
		}

		// 域内邻居总是建边 (即使已访问过)
		e.graph.AddEdge(current, neighbor)

		// 仅未访问过的邻居才入队
		if e.visited.MarkIfNew(neighbor) {
			e.frontier.Push(neighbor)

			// 每当已访问数达到间隔的整数倍时保存中间快照
			if e.visited.Len()%e.config.CheckpointInterval == 0 {
				if _, err := e.checkpointer.SnapshotGraph(e.graph, e.visited.Len()); err != nil {
					return &PersistenceError{Op: "中间快照", Cause: err}
				}
				run.Stats.Checkpoints++
			}
		}
	}
	return nil
}

// politenessSleep 在每次迭代前随机休眠 [DelayMin, DelayMax] 秒
func (e *Engine) politenessSleep() {
	if e.config.DelayMax <= 0 {
		return
	}
	n := rand.Intn(e.config.DelayMax-e.config.DelayMin+1) + e.config.DelayMin
	if n > 0 {
		utils.Debugf("💤 休眠 %d 秒", n)
		time.Sleep(time.Duration(n) * time.Second)
	}
}

// finish 记录完成状态和统计信息
func (e *Engine) finish(run *models.CrawlRun, status models.RunStatus) {
	now := time.Now()
	run.CompletedAt = &now
	run.Status = status
	e.collectStats(run)
}

// fail 记录失败状态
func (e *Engine) fail(run *models.CrawlRun, err error) {
	now := time.Now()
	run.CompletedAt = &now
	run.Status = models.RunStatusFailed
	run.ErrorMessage = err.Error()
	e.collectStats(run)
}

// collectStats 汇总统计信息到运行记录
func (e *Engine) collectStats(run *models.CrawlRun) {
	run.Stats.VisitedURLs = e.visited.Len()
	run.Stats.ProcessedURLs = len(e.bfsSeq)
	run.Stats.Nodes = e.graph.NodeCount()
	run.Stats.Edges = e.graph.EdgeCount()
	if run.StartedAt != nil && run.CompletedAt != nil {
		run.Stats.Duration = run.CompletedAt.Sub(*run.StartedAt).Seconds()
	}
}
