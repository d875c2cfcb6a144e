package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/RecoveryAshes/GraphCrawl/internal/models"
)

// mockFetcher 用页面→链接映射模拟抓取
type mockFetcher struct {
	pages    map[string][]string // URL → 页面中的href列表
	failures map[string]error    // URL → 抓取错误
	calls    []string            // 记录抓取顺序
}

func (m *mockFetcher) FetchLinks(rawURL string) ([]string, error) {
	m.calls = append(m.calls, rawURL)
	if err, ok := m.failures[rawURL]; ok {
		return nil, err
	}
	return m.pages[rawURL], nil
}

// mockCheckpointer 记录检查点调用
type mockCheckpointer struct {
	snapshots    []int    // 每次快照时的已访问数
	finalSeq     []string // FinalizeRun收到的BFS序列
	finalVisited int      // FinalizeRun收到的已访问数
	finalized    bool
	snapshotErr  error
	finalizeErr  error
}

func (m *mockCheckpointer) SnapshotGraph(graph *models.DiGraph, visitedCount int) (string, error) {
	if m.snapshotErr != nil {
		return "", m.snapshotErr
	}
	m.snapshots = append(m.snapshots, visitedCount)
	return fmt.Sprintf("interim_%d_len_graph.gexf", visitedCount), nil
}

func (m *mockCheckpointer) FinalizeRun(graph *models.DiGraph, bfsSeq []string, visitedCount int) (string, string, error) {
	if m.finalizeErr != nil {
		return "", "", m.finalizeErr
	}
	m.finalized = true
	m.finalSeq = append([]string{}, bfsSeq...)
	m.finalVisited = visitedCount
	return fmt.Sprintf("final_%d_len_graph.gexf", visitedCount), "bfs_seq.json", nil
}

// testConfig 返回无休眠的测试配置
func testConfig() models.CrawlConfig {
	return models.CrawlConfig{
		MaxNodes:           0,
		CheckpointInterval: 5000,
		DelayMin:           0,
		DelayMax:           0,
		Timeout:            30,
		DomainSuffixes:     []string{"ontariotechu.ca", "uoit.ca"},
	}
}

func newTestEngine(t *testing.T, config models.CrawlConfig, fetcher *mockFetcher, cp *mockCheckpointer) *Engine {
	t.Helper()
	engine, err := NewEngine(config, fetcher, cp, nil)
	if err != nil {
		t.Fatalf("创建引擎失败: %v", err)
	}
	return engine
}

// TestEngineBFSOrder 测试逐层遍历顺序
func TestEngineBFSOrder(t *testing.T) {
	root := "https://ontariotechu.ca/"
	fetcher := &mockFetcher{
		pages: map[string][]string{
			root: {"/a", "/b"},
			"https://ontariotechu.ca/a": {"/c", "/d"},
			"https://ontariotechu.ca/b": {"/e"},
		},
	}
	cp := &mockCheckpointer{}
	engine := newTestEngine(t, testConfig(), fetcher, cp)

	run, err := engine.Crawl(root)
	if err != nil {
		t.Fatalf("遍历失败: %v", err)
	}

	expected := []string{
		root,
		"https://ontariotechu.ca/a",
		"https://ontariotechu.ca/b",
		"https://ontariotechu.ca/c",
		"https://ontariotechu.ca/d",
		"https://ontariotechu.ca/e",
	}
	seq := engine.BFSSequence()
	if len(seq) != len(expected) {
		t.Fatalf("BFS序列长度 = %d, 期望 %d\n序列: %v", len(seq), len(expected), seq)
	}
	for i, u := range expected {
		if seq[i] != u {
			t.Errorf("BFS序列[%d] = %q, 期望 %q (同层链接必须按发现顺序处理)", i, seq[i], u)
		}
	}

	if run.Status != models.RunStatusDone {
		t.Errorf("状态 = %q, 期望 done", run.Status)
	}
	if run.Stats.ProcessedURLs != 6 || run.Stats.VisitedURLs != 6 {
		t.Errorf("统计 = 处理%d/访问%d, 期望 6/6", run.Stats.ProcessedURLs, run.Stats.VisitedURLs)
	}
}

// TestEngineNoDuplicateEnqueue 测试同一URL只入队一次
func TestEngineNoDuplicateEnqueue(t *testing.T) {
	root := "https://ontariotechu.ca/"
	shared := "https://ontariotechu.ca/shared"
	fetcher := &mockFetcher{
		pages: map[string][]string{
			root: {"/a", "/b"},
			"https://ontariotechu.ca/a": {shared},
			"https://ontariotechu.ca/b": {shared},
			shared: {},
		},
	}
	cp := &mockCheckpointer{}
	engine := newTestEngine(t, testConfig(), fetcher, cp)

	if _, err := engine.Crawl(root); err != nil {
		t.Fatalf("遍历失败: %v", err)
	}

	// shared被两个页面引用,但只抓取一次
	count := 0
	for _, u := range fetcher.calls {
		if u == shared {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shared被抓取%d次, 期望 1 (同一URL永不重复入队)", count)
	}

	// 两条入边都要建立
	g := engine.Graph()
	if !g.HasEdge("https://ontariotechu.ca/a", shared) || !g.HasEdge("https://ontariotechu.ca/b", shared) {
		t.Error("指向已访问URL的链接仍应建边")
	}
}

// TestEngineRevisitEdge 测试指向已访问节点的回边
func TestEngineRevisitEdge(t *testing.T) {
	root := "https://ontariotechu.ca/"
	about := "https://ontariotechu.ca/about"
	fetcher := &mockFetcher{
		pages: map[string][]string{
			root:  {about},
			about: {root}, // 回边指向种子
		},
	}
	cp := &mockCheckpointer{}
	engine := newTestEngine(t, testConfig(), fetcher, cp)

	if _, err := engine.Crawl(root); err != nil {
		t.Fatalf("遍历失败: %v", err)
	}

	g := engine.Graph()
	if !g.HasEdge(root, about) || !g.HasEdge(about, root) {
		t.Error("双向链接应产生两条有向边")
	}

	seq := engine.BFSSequence()
	if len(seq) != 2 {
		t.Errorf("BFS序列长度 = %d, 期望 2 (回边不应导致重复处理)", len(seq))
	}
}

// TestEngineLinkFiltering 测试链接分类过滤
func TestEngineLinkFiltering(t *testing.T) {
	root := "http://ontariotechu.ca/"
	fetcher := &mockFetcher{
		pages: map[string][]string{
			root: {
				"/about",                      // 域内相对链接 → 建边并入队
				"/files/syllabus.pdf",         // 忽略扩展名 → 完全跳过
				"https://external.com/page",   // 域外 → 完全跳过
				"mailto:info@ontariotechu.ca", // 非Web协议 → 完全跳过
				"https://uoit.ca/library",     // 备用域名 → 建边并入队
			},
			"http://ontariotechu.ca/about": {},
			"https://uoit.ca/library":      {},
		},
	}
	cp := &mockCheckpointer{}
	engine := newTestEngine(t, testConfig(), fetcher, cp)

	run, err := engine.Crawl(root)
	if err != nil {
		t.Fatalf("遍历失败: %v", err)
	}

	g := engine.Graph()
	if !g.HasEdge(root, "http://ontariotechu.ca/about") {
		t.Error("相对链接应按种子页面解析并建边")
	}
	if !g.HasEdge(root, "https://uoit.ca/library") {
		t.Error("备用域名后缀的链接应建边")
	}
	if g.HasNode("https://external.com/page") {
		t.Error("域外链接不应出现在图中")
	}
	if g.NodeCount() != 3 {
		t.Errorf("节点数 = %d, 期望 3\n节点: %v", g.NodeCount(), g.Nodes())
	}
	if run.Stats.ProcessedURLs != 3 {
		t.Errorf("处理数 = %d, 期望 3 (被过滤的链接不应入队)", run.Stats.ProcessedURLs)
	}
}

// TestEngineFetchFailureIsolation 测试抓取失败不中断遍历
func TestEngineFetchFailureIsolation(t *testing.T) {
	root := "https://ontariotechu.ca/"
	broken := "https://ontariotechu.ca/broken"
	ok := "https://ontariotechu.ca/ok"
	fetcher := &mockFetcher{
		pages: map[string][]string{
			root: {broken, ok},
			ok:   {},
		},
		failures: map[string]error{
			broken: errors.New("连接超时"),
		},
	}
	cp := &mockCheckpointer{}
	engine := newTestEngine(t, testConfig(), fetcher, cp)

	run, err := engine.Crawl(root)
	if err != nil {
		t.Fatalf("单个URL抓取失败不应导致整体失败: %v", err)
	}

	if run.Status != models.RunStatusDone {
		t.Errorf("状态 = %q, 期望 done", run.Status)
	}
	if run.Stats.FailedFetches != 1 {
		t.Errorf("失败数 = %d, 期望 1", run.Stats.FailedFetches)
	}

	// 失败的URL保留在图中(作为入边目标)但没有出边
	g := engine.Graph()
	if !g.HasNode(broken) {
		t.Error("失败URL作为链接目标应保留在图中")
	}
	if g.OutDegree(broken) != 0 {
		t.Errorf("失败URL的出度 = %d, 期望 0", g.OutDegree(broken))
	}

	// ok页面仍被处理
	seq := engine.BFSSequence()
	if len(seq) != 3 {
		t.Errorf("BFS序列长度 = %d, 期望 3 (失败后继续处理队列)", len(seq))
	}

	failed := engine.FailedURLs()
	if len(failed) != 1 || failed[0].URL != broken {
		t.Errorf("失败列表 = %v, 期望只含broken", failed)
	}
}

// TestEngineMaxNodes 测试节点上限终止
func TestEngineMaxNodes(t *testing.T) {
	root := "https://ontariotechu.ca/"
	fetcher := &mockFetcher{
		pages: map[string][]string{
			root: {"/p1", "/p2", "/p3", "/p4"},
			"https://ontariotechu.ca/p1": {"/p5"},
			"https://ontariotechu.ca/p2": {},
			"https://ontariotechu.ca/p3": {},
			"https://ontariotechu.ca/p4": {},
			"https://ontariotechu.ca/p5": {},
		},
	}
	cp := &mockCheckpointer{}
	config := testConfig()
	config.MaxNodes = 3
	engine := newTestEngine(t, config, fetcher, cp)

	run, err := engine.Crawl(root)
	if err != nil {
		t.Fatalf("遍历失败: %v", err)
	}

	// 处理种子后已访问数跳到5 (种子+4个邻居), 超过上限3, 下一轮立即停止。
	// 上限按已访问集合大小判断,不是已处理数。
	if run.Stats.ProcessedURLs != 1 {
		t.Errorf("处理数 = %d, 期望 1 (已访问数超过上限后不再处理)", run.Stats.ProcessedURLs)
	}
	if run.Stats.VisitedURLs != 5 {
		t.Errorf("已访问数 = %d, 期望 5", run.Stats.VisitedURLs)
	}
	if run.Status != models.RunStatusDone {
		t.Errorf("状态 = %q, 期望 done (达到上限是正常完成)", run.Status)
	}
	if !cp.finalized {
		t.Error("达到上限后仍应保存最终结果")
	}
}

// TestEngineCheckpointCadence 测试检查点触发节奏
func TestEngineCheckpointCadence(t *testing.T) {
	root := "https://ontariotechu.ca/"
	fetcher := &mockFetcher{
		pages: map[string][]string{
			root: {"/a", "/b", "/c", "/d", "/e"},
			"https://ontariotechu.ca/a": {},
			"https://ontariotechu.ca/b": {},
			"https://ontariotechu.ca/c": {},
			"https://ontariotechu.ca/d": {},
			"https://ontariotechu.ca/e": {},
		},
	}
	cp := &mockCheckpointer{}
	config := testConfig()
	config.CheckpointInterval = 2
	engine := newTestEngine(t, config, fetcher, cp)

	run, err := engine.Crawl(root)
	if err != nil {
		t.Fatalf("遍历失败: %v", err)
	}

	// 已访问数依次为 1(种子),2,3,4,5,6 → 在2,4,6时触发快照
	expected := []int{2, 4, 6}
	if len(cp.snapshots) != len(expected) {
		t.Fatalf("快照次数 = %d, 期望 %d\n快照点: %v", len(cp.snapshots), len(expected), cp.snapshots)
	}
	for i, n := range expected {
		if cp.snapshots[i] != n {
			t.Errorf("快照[%d]在已访问数%d时触发, 期望 %d", i, cp.snapshots[i], n)
		}
	}
	if run.Stats.Checkpoints != 3 {
		t.Errorf("检查点计数 = %d, 期望 3", run.Stats.Checkpoints)
	}
}

// TestEngineFinalizeSequence 测试最终结果包含完整BFS序列
func TestEngineFinalizeSequence(t *testing.T) {
	root := "https://ontariotechu.ca/"
	fetcher := &mockFetcher{
		pages: map[string][]string{
			root: {"/a"},
			"https://ontariotechu.ca/a": {},
		},
	}
	cp := &mockCheckpointer{}
	engine := newTestEngine(t, testConfig(), fetcher, cp)

	if _, err := engine.Crawl(root); err != nil {
		t.Fatalf("遍历失败: %v", err)
	}

	if !cp.finalized {
		t.Fatal("遍历结束后必须保存最终结果")
	}
	if len(cp.finalSeq) != 2 || cp.finalSeq[0] != root {
		t.Errorf("最终BFS序列 = %v, 期望以种子开头且长度为2", cp.finalSeq)
	}
	if cp.finalVisited != 2 {
		t.Errorf("最终快照标记的已访问数 = %d, 期望 2", cp.finalVisited)
	}

	graphFile, seqFile := engine.OutputFiles()
	if graphFile == "" || seqFile == "" {
		t.Error("最终产物文件路径应被记录")
	}
}

// TestEnginePersistenceFatal 测试持久化失败终止整个运行
func TestEnginePersistenceFatal(t *testing.T) {
	root := "https://ontariotechu.ca/"
	fetcher := &mockFetcher{
		pages: map[string][]string{
			root: {"/a", "/b"},
			"https://ontariotechu.ca/a": {},
			"https://ontariotechu.ca/b": {},
		},
	}

	t.Run("中间快照失败", func(t *testing.T) {
		cp := &mockCheckpointer{snapshotErr: errors.New("磁盘已满")}
		config := testConfig()
		config.CheckpointInterval = 2
		engine := newTestEngine(t, config, fetcher, cp)

		run, err := engine.Crawl(root)
		if err == nil {
			t.Fatal("快照失败应导致运行失败")
		}
		var perr *PersistenceError
		if !errors.As(err, &perr) {
			t.Errorf("错误类型 = %T, 期望 *PersistenceError", err)
		}
		if run.Status != models.RunStatusFailed {
			t.Errorf("状态 = %q, 期望 failed", run.Status)
		}
	})

	t.Run("最终结果保存失败", func(t *testing.T) {
		fetcher := &mockFetcher{
			pages: map[string][]string{root: {}},
		}
		cp := &mockCheckpointer{finalizeErr: errors.New("磁盘已满")}
		engine := newTestEngine(t, testConfig(), fetcher, cp)

		run, err := engine.Crawl(root)
		if err == nil {
			t.Fatal("最终保存失败应导致运行失败")
		}
		var perr *PersistenceError
		if !errors.As(err, &perr) {
			t.Errorf("错误类型 = %T, 期望 *PersistenceError", err)
		}
		if run.Status != models.RunStatusFailed {
			t.Errorf("状态 = %q, 期望 failed", run.Status)
		}
	})
}

// TestEngineInvalidSeed 测试无效种子URL
func TestEngineInvalidSeed(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string][]string{}}
	cp := &mockCheckpointer{}
	engine := newTestEngine(t, testConfig(), fetcher, cp)

	if _, err := engine.Crawl("not-a-url"); err == nil {
		t.Error("无效种子URL应立即返回错误")
	}
	if len(fetcher.calls) != 0 {
		t.Error("无效种子不应触发任何抓取")
	}
}

// TestEngineFreshState 测试多次运行之间状态隔离
func TestEngineFreshState(t *testing.T) {
	root := "https://ontariotechu.ca/"
	fetcher := &mockFetcher{
		pages: map[string][]string{
			root: {"/a"},
			"https://ontariotechu.ca/a": {},
		},
	}
	cp := &mockCheckpointer{}
	engine := newTestEngine(t, testConfig(), fetcher, cp)

	run1, err := engine.Crawl(root)
	if err != nil {
		t.Fatalf("第一次遍历失败: %v", err)
	}
	run2, err := engine.Crawl(root)
	if err != nil {
		t.Fatalf("第二次遍历失败: %v", err)
	}

	if run1.ID == run2.ID {
		t.Error("每次运行应有独立的ID")
	}
	if run2.Stats.ProcessedURLs != 2 {
		t.Errorf("第二次处理数 = %d, 期望 2 (状态应重新初始化)", run2.Stats.ProcessedURLs)
	}
}
