package utils

import (
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/GraphCrawl/internal/models"
)

// gexfFileForTest 用于解析写出的GEXF文件
type gexfFileForTest struct {
	XMLName xml.Name `xml:"gexf"`
	Version string   `xml:"version,attr"`
	Graph   struct {
		EdgeType string `xml:"defaultedgetype,attr"`
		Nodes    []struct {
			ID    int    `xml:"id,attr"`
			Label string `xml:"label,attr"`
		} `xml:"nodes>node"`
		Edges []struct {
			Source int `xml:"source,attr"`
			Target int `xml:"target,attr"`
		} `xml:"edges>edge"`
	} `xml:"graph"`
}

func buildTestGraph() *models.DiGraph {
	g := models.NewDiGraph()
	g.AddEdge("https://ontariotechu.ca/", "https://ontariotechu.ca/about")
	g.AddEdge("https://ontariotechu.ca/", "https://ontariotechu.ca/programs")
	g.AddEdge("https://ontariotechu.ca/about", "https://ontariotechu.ca/")
	return g
}

// TestWriteGEXF 测试GEXF文件写出和结构
func TestWriteGEXF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_graph.gexf")

	g := buildTestGraph()
	if err := WriteGEXF(g, path); err != nil {
		t.Fatalf("写出GEXF失败: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取GEXF文件失败: %v", err)
	}

	var doc gexfFileForTest
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("解析GEXF失败: %v", err)
	}

	if doc.Version != "1.2" {
		t.Errorf("GEXF版本 = %q, 期望 1.2", doc.Version)
	}
	if doc.Graph.EdgeType != "directed" {
		t.Errorf("边类型 = %q, 期望 directed", doc.Graph.EdgeType)
	}
	if len(doc.Graph.Nodes) != 3 {
		t.Errorf("节点数 = %d, 期望 3", len(doc.Graph.Nodes))
	}
	if len(doc.Graph.Edges) != 3 {
		t.Errorf("边数 = %d, 期望 3", len(doc.Graph.Edges))
	}

	// 节点标签是完整URL,ID与图内编号一致
	if doc.Graph.Nodes[0].Label != "https://ontariotechu.ca/" || doc.Graph.Nodes[0].ID != 0 {
		t.Errorf("首节点 = %+v, 期望 id=0 label=种子URL", doc.Graph.Nodes[0])
	}

	// 边的source/target引用节点ID
	first := doc.Graph.Edges[0]
	if first.Source != 0 || first.Target != 1 {
		t.Errorf("首条边 = %+v, 期望 0→1", first)
	}
}

// TestGEXFCheckpointerSnapshot 测试中间快照文件命名
func TestGEXFCheckpointerSnapshot(t *testing.T) {
	dir := t.TempDir()
	cp, err := NewGEXFCheckpointer(dir)
	if err != nil {
		t.Fatalf("创建检查点器失败: %v", err)
	}

	g := buildTestGraph()
	path, err := cp.SnapshotGraph(g, 5000)
	if err != nil {
		t.Fatalf("保存快照失败: %v", err)
	}

	if filepath.Base(path) != "interim_5000_len_graph.gexf" {
		t.Errorf("快照文件名 = %q, 期望 interim_5000_len_graph.gexf", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("快照文件不存在: %v", err)
	}
}

// TestGEXFCheckpointerFinalize 测试最终结果文件
func TestGEXFCheckpointerFinalize(t *testing.T) {
	dir := t.TempDir()
	cp, err := NewGEXFCheckpointer(dir)
	if err != nil {
		t.Fatalf("创建检查点器失败: %v", err)
	}

	g := buildTestGraph()
	bfsSeq := []string{
		"https://ontariotechu.ca/",
		"https://ontariotechu.ca/about",
		"https://ontariotechu.ca/programs",
	}

	graphPath, seqPath, err := cp.FinalizeRun(g, bfsSeq, 5)
	if err != nil {
		t.Fatalf("保存最终结果失败: %v", err)
	}

	if filepath.Base(graphPath) != "final_5_len_graph.gexf" {
		t.Errorf("最终图文件名 = %q, 期望 final_5_len_graph.gexf", filepath.Base(graphPath))
	}
	if filepath.Base(seqPath) != "bfs_seq.json" {
		t.Errorf("序列文件名 = %q, 期望 bfs_seq.json", filepath.Base(seqPath))
	}

	// BFS序列往返校验
	data, err := os.ReadFile(seqPath)
	if err != nil {
		t.Fatalf("读取序列文件失败: %v", err)
	}
	var restored []string
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("解析序列文件失败: %v", err)
	}
	if len(restored) != 3 || restored[0] != bfsSeq[0] {
		t.Errorf("序列 = %v, 期望与写入一致", restored)
	}
}

// TestWriteGEXFEmptyGraph 测试空图写出
func TestWriteGEXFEmptyGraph(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.gexf")

	if err := WriteGEXF(models.NewDiGraph(), path); err != nil {
		t.Fatalf("空图写出失败: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取文件失败: %v", err)
	}
	var doc gexfFileForTest
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(doc.Graph.Nodes) != 0 || len(doc.Graph.Edges) != 0 {
		t.Error("空图不应有节点或边")
	}
}
