package utils

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/GraphCrawl/internal/models"
)

// GEXF 1.2 文档结构
// 参考: https://gexf.net/schema.html
type gexfDocument struct {
	XMLName xml.Name  `xml:"gexf"`
	XMLNS   string    `xml:"xmlns,attr"`
	Version string    `xml:"version,attr"`
	Meta    gexfMeta  `xml:"meta"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfMeta struct {
	LastModified string `xml:"lastmodifieddate,attr"`
	Creator      string `xml:"creator"`
	Description  string `xml:"description"`
}

type gexfGraph struct {
	Mode        string     `xml:"mode,attr"`
	EdgeType    string     `xml:"defaultedgetype,attr"`
	Nodes       []gexfNode `xml:"nodes>node"`
	Edges       []gexfEdge `xml:"edges>edge"`
}

type gexfNode struct {
	ID    int    `xml:"id,attr"`
	Label string `xml:"label,attr"`
}

type gexfEdge struct {
	ID     int `xml:"id,attr"`
	Source int `xml:"source,attr"`
	Target int `xml:"target,attr"`
}

// WriteGEXF 将有向图序列化为GEXF 1.2格式文件
// 节点ID使用图内部的稳定整数编号,标签为完整URL
func WriteGEXF(graph *models.DiGraph, path string) error {
	doc := gexfDocument{
		XMLNS:   "http://gexf.net/1.2",
		Version: "1.2",
		Meta: gexfMeta{
			LastModified: time.Now().Format("2006-01-02"),
			Creator:      "GraphCrawl",
			Description:  "网站链接有向图快照",
		},
		Graph: gexfGraph{
			Mode:     "static",
			EdgeType: "directed",
		},
	}

	for _, url := range graph.Nodes() {
		doc.Graph.Nodes = append(doc.Graph.Nodes, gexfNode{
			ID:    graph.NodeID(url),
			Label: url,
		})
	}

	for i, edge := range graph.Edges() {
		doc.Graph.Edges = append(doc.Graph.Edges, gexfEdge{
			ID:     i,
			Source: graph.NodeID(edge.Src),
			Target: graph.NodeID(edge.Dst),
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("GEXF序列化失败: %w", err)
	}

	content := append([]byte(xml.Header), data...)
	content = append(content, '\n')

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("GEXF文件写入失败: %w", err)
	}
	return nil
}

// GEXFCheckpointer 基于GEXF文件的检查点器
// 中间快照文件名: interim_<n>_len_graph.gexf
// 最终快照文件名: final_<n>_len_graph.gexf
// BFS访问序列文件名: bfs_seq.json
type GEXFCheckpointer struct {
	outputDir string
}

// NewGEXFCheckpointer 创建检查点器并确保输出目录存在
func NewGEXFCheckpointer(outputDir string) (*GEXFCheckpointer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	return &GEXFCheckpointer{outputDir: outputDir}, nil
}

// OutputDir 返回输出目录
func (c *GEXFCheckpointer) OutputDir() string {
	return c.outputDir
}

// SnapshotGraph 保存中间图快照
func (c *GEXFCheckpointer) SnapshotGraph(graph *models.DiGraph, visitedCount int) (string, error) {
	filename := fmt.Sprintf("interim_%d_len_graph.gexf", visitedCount)
	path := filepath.Join(c.outputDir, filename)
	if err := WriteGEXF(graph, path); err != nil {
		return "", err
	}
	Infof("💾 中间快照已保存: %s (已访问 %d 个节点)", filename, visitedCount)
	return path, nil
}

// FinalizeRun 保存最终图快照和BFS访问序列
// 最终图文件名以已访问节点总数标记,返回最终图文件路径和BFS序列文件路径
func (c *GEXFCheckpointer) FinalizeRun(graph *models.DiGraph, bfsSeq []string, visitedCount int) (string, string, error) {
	graphFile := fmt.Sprintf("final_%d_len_graph.gexf", visitedCount)
	graphPath := filepath.Join(c.outputDir, graphFile)
	if err := WriteGEXF(graph, graphPath); err != nil {
		return "", "", err
	}

	seqPath := filepath.Join(c.outputDir, "bfs_seq.json")
	seqData, err := json.MarshalIndent(bfsSeq, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("BFS序列序列化失败: %w", err)
	}
	if err := os.WriteFile(seqPath, seqData, 0644); err != nil {
		return "", "", fmt.Errorf("BFS序列文件写入失败: %w", err)
	}

	Infof("✅ 最终结果已保存: %s, bfs_seq.json (已访问 %d 个节点, 序列长度 %d)", graphFile, visitedCount, len(bfsSeq))
	return graphPath, seqPath, nil
}
