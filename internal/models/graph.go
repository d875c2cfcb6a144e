package models

// DiGraph 有向链接图
// 节点为URL字符串,边 (src -> dst) 表示页面src中包含指向dst的超链接。
// 图只增不减: 没有任何删除节点或边的操作。
// 节点和边保留插入顺序,保证序列化输出的确定性。
type DiGraph struct {
	// 节点插入顺序
	nodeOrder []string

	// 节点ID映射 (URL -> 序号)
	nodeIndex map[string]int

	// 邻接表: src -> dst集合 (边去重用)
	adjacency map[string]map[string]bool

	// 边插入顺序
	edgeOrder []Edge
}

// Edge 有向边
type Edge struct {
	Src string `json:"src"` // 源页面URL
	Dst string `json:"dst"` // 目标页面URL
}

// NewDiGraph 创建空的有向图
func NewDiGraph() *DiGraph {
	return &DiGraph{
		nodeOrder: make([]string, 0),
		nodeIndex: make(map[string]int),
		adjacency: make(map[string]map[string]bool),
		edgeOrder: make([]Edge, 0),
	}
}

// addNode 添加节点 (已存在则无操作)
func (g *DiGraph) addNode(url string) {
	if _, exists := g.nodeIndex[url]; exists {
		return
	}
	g.nodeIndex[url] = len(g.nodeOrder)
	g.nodeOrder = append(g.nodeOrder, url)
}

// AddEdge 添加有向边 src -> dst
// 幂等操作: 重复添加同一条边时图保持不变。
// 边的两个端点会被自动创建为节点。
func (g *DiGraph) AddEdge(src, dst string) {
	g.addNode(src)
	g.addNode(dst)

	neighbors, exists := g.adjacency[src]
	if !exists {
		neighbors = make(map[string]bool)
		g.adjacency[src] = neighbors
	}
	if neighbors[dst] {
		// 边已存在,无操作
		return
	}
	neighbors[dst] = true
	g.edgeOrder = append(g.edgeOrder, Edge{Src: src, Dst: dst})
}

// HasNode 检查节点是否存在
func (g *DiGraph) HasNode(url string) bool {
	_, exists := g.nodeIndex[url]
	return exists
}

// HasEdge 检查边是否存在
func (g *DiGraph) HasEdge(src, dst string) bool {
	return g.adjacency[src][dst]
}

// NodeID 返回节点的稳定序号 (序列化时作为节点ID使用)
// 节点不存在时返回-1。
func (g *DiGraph) NodeID(url string) int {
	id, exists := g.nodeIndex[url]
	if !exists {
		return -1
	}
	return id
}

// Nodes 按插入顺序返回所有节点
// 返回的切片为副本,调用方可自由修改。
func (g *DiGraph) Nodes() []string {
	nodes := make([]string, len(g.nodeOrder))
	copy(nodes, g.nodeOrder)
	return nodes
}

// Edges 按插入顺序返回所有边
func (g *DiGraph) Edges() []Edge {
	edges := make([]Edge, len(g.edgeOrder))
	copy(edges, g.edgeOrder)
	return edges
}

// NodeCount 节点总数
func (g *DiGraph) NodeCount() int {
	return len(g.nodeOrder)
}

// EdgeCount 边总数
func (g *DiGraph) EdgeCount() int {
	return len(g.edgeOrder)
}

// OutDegree 返回节点的出度 (节点不存在时为0)
func (g *DiGraph) OutDegree(url string) int {
	return len(g.adjacency[url])
}
