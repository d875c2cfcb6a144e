package crawlers

import "errors"

// ErrEmptyFrontier 对空队列调用Pop时返回
// 这是调用方契约错误: 遍历循环自身的继续条件保证正常运行中不会出现。
var ErrEmptyFrontier = errors.New("frontier队列为空")

// Frontier 待爬URL队列
// 职责: 维护严格FIFO顺序的待处理URL序列。
// 本层不做去重: 至多一次入队由调用方(遍历引擎)通过VisitedSet在入队前保证。
// 队列由单个遍历引擎独占,单线程顺序访问,不需要加锁。
type Frontier struct {
	items []string
}

// NewFrontier 创建空队列
func NewFrontier() *Frontier {
	return &Frontier{items: make([]string, 0)}
}

// Push 将URL追加到队尾
func (f *Frontier) Push(url string) {
	f.items = append(f.items, url)
}

// Pop 移除并返回队首URL
// 队列为空时返回ErrEmptyFrontier,调用方应先用IsEmpty检查。
func (f *Frontier) Pop() (string, error) {
	if len(f.items) == 0 {
		return "", ErrEmptyFrontier
	}
	head := f.items[0]
	f.items = f.items[1:]
	return head, nil
}

// IsEmpty 检查队列是否为空
func (f *Frontier) IsEmpty() bool {
	return len(f.items) == 0
}

// Len 当前待处理URL数量
func (f *Frontier) Len() int {
	return len(f.items)
}

// VisitedSet 已发现URL集合
// 集合只增不减,作为URL至多一次入队的唯一判据。
// 两个URL相等当且仅当字符串相等: 不做查询参数排序、末尾斜杠、大小写
// 等规范化处理。这是明确保留的限制,不是待修复的缺陷。
type VisitedSet struct {
	urls map[string]bool
}

// NewVisitedSet 创建空集合
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]bool)}
}

// MarkIfNew 原子性的检查并标记
// URL未出现过时标记并返回true,已出现过时返回false。
// 入队去重的唯一入口: 返回true的URL才允许被Push到Frontier。
func (s *VisitedSet) MarkIfNew(url string) bool {
	if s.urls[url] {
		return false
	}
	s.urls[url] = true
	return true
}

// Contains 检查URL是否已在集合中
func (s *VisitedSet) Contains(url string) bool {
	return s.urls[url]
}

// Len 集合大小
func (s *VisitedSet) Len() int {
	return len(s.urls)
}
