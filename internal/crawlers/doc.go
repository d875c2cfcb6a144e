// Package crawlers 提供BFS站点遍历的基础组件
//
// # 概述
//
// crawlers包实现遍历引擎依赖的四个叶子组件: FIFO队列、URL分类器、
// 页面抓取适配器和内存防护器。组件之间互不依赖,由internal/core中的
// 遍历引擎统一编排。
//
// # 核心组件
//
// ## Frontier / VisitedSet (待爬队列与已发现集合)
//
// Frontier维护严格FIFO的待处理URL序列,保证遍历按发现顺序逐层展开
// (真正的BFS分层)。VisitedSet记录所有已发现的URL,MarkIfNew是
// 至多一次入队的唯一判据。两者都由单个遍历引擎独占,不加锁。
//
//	frontier := NewFrontier()
//	visited := NewVisitedSet()
//
//	if visited.MarkIfNew(url) {
//	    frontier.Push(url)
//	}
//	focus, err := frontier.Pop()
//
// ## URLClassifier (URL分类器)
//
// 三个纯函数: IsIgnoredExtension按扩展名忽略资源文件,
// ResolveRelative将'/'开头的相对链接绝对化,InScope按域名后缀
// 判断链接是否在目标域范围内。分类参数在构造时注入。
//
//	classifier := NewURLClassifier([]string{"ontariotechu.ca", "uoit.ca"}, nil)
//
//	classifier.IsIgnoredExtension("http://site.ca/file.pdf") // true
//	classifier.ResolveRelative("http://site.ca/a", "/b")     // "http://site.ca/b"
//	classifier.InScope("mailto:someone@site.ca")             // false
//
// ## CollyFetcher (抓取适配器)
//
// 基于Colly的单页抓取器: 抓取一个页面,解压响应(gzip/deflate/br),
// 用golang.org/x/net/html提取所有<a>标签的原始href字符串。
// 任何失败都包装为FetchError返回,由引擎决定恢复策略。
//
//	fetcher := NewCollyFetcher(30, headerProvider)
//	hrefs, err := fetcher.FetchLinks("https://ontariotechu.ca/")
//
// ## MemoryGuard (内存防护器)
//
// 采样系统可用内存(gopsutil),低于安全保留值时通知引擎提前收尾,
// 保证最终快照能写出而不是被OOM杀掉。
//
//	guard := NewMemoryGuard(512) // 保留512MB
//	if !guard.Check() { /* 收尾 */ }
//
// # 错误处理
//
//   - FetchError: 页面级失败,非致命,引擎记录后跳过该页面,不重试
//   - ErrEmptyFrontier: 对空队列Pop,属于调用方契约错误
//   - 无法解析的链接: 分类器按"不在范围内"静默丢弃,不报错
package crawlers
