package crawlers

import (
	"net/url"
	"strings"
)

// URLClassifier URL分类器
// 职责: 判断发现的链接是否在目标域范围内、是否指向应忽略的资源文件,
// 并将相对链接解析为绝对链接。
//
// 三个方法都是纯函数: 无共享可变状态,无I/O,无副作用。
// 分类参数(域名后缀、扩展名列表)在构造时注入,不使用全局状态。
type URLClassifier struct {
	// 允许的域名后缀 (host包含任意一个即视为域内)
	domainSuffixes []string

	// 忽略的文件扩展名 (小写)
	ignoredExtensions map[string]bool
}

// NewURLClassifier 创建URL分类器
// extensions为空时使用内置的DefaultIgnoredExtensions列表。
func NewURLClassifier(domainSuffixes []string, extensions []string) *URLClassifier {
	if len(extensions) == 0 {
		extensions = DefaultIgnoredExtensions
	}

	ignored := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ignored[strings.ToLower(ext)] = true
	}

	return &URLClassifier{
		domainSuffixes:    domainSuffixes,
		ignoredExtensions: ignored,
	}
}

// IsIgnoredExtension 判断链接是否指向应忽略的资源文件
// 取URL路径中最后一个'.'之后的部分作为扩展名,小写后查忽略列表。
// 路径中没有'.'时,整个路径会作为"扩展名"参与匹配,自然不会命中列表,
// 链接按不忽略处理。这是沿用的既有行为,不做修正。
func (c *URLClassifier) IsIgnoredExtension(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		// 解析失败的链接交给后续InScope检查过滤
		return false
	}

	path := parsed.Path
	ext := path
	if idx := strings.LastIndex(path, "."); idx != -1 {
		ext = path[idx+1:]
	}

	return c.ignoredExtensions[strings.ToLower(ext)]
}

// ResolveRelative 将相对链接解析为绝对链接
// 仅处理以'/'开头的相对链接: 按标准URL拼接规则继承baseURL的协议和主机,
// 替换路径。其他形式的href原样返回。
func (c *URLClassifier) ResolveRelative(baseURL, href string) string {
	if !strings.HasPrefix(href, "/") {
		return href
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return base.ResolveReference(ref).String()
}

// InScope 判断链接是否在目标域范围内
// 条件: 协议是Web协议(包含"http") 且 主机名包含任意一个允许的域名后缀。
// mailto:、javascript:、纯锚点等无协议链接会因协议检查失败而被拒绝。
func (c *URLClassifier) InScope(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if !strings.Contains(parsed.Scheme, "http") {
		return false
	}

	host := parsed.Host
	for _, suffix := range c.domainSuffixes {
		if strings.Contains(host, suffix) {
			return true
		}
	}

	return false
}
