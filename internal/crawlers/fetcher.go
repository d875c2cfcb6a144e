package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/GraphCrawl/internal/models"
	"github.com/RecoveryAshes/GraphCrawl/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html"
)

// FetchError 页面抓取失败
// 网络错误、超时、HTTP错误状态、解压失败都归入此类。
// 遍历引擎将其视为非致命错误: 记录后跳过该页面,不重试。
type FetchError struct {
	URL   string // 抓取失败的URL
	Cause error  // 底层错误
}

// Error 实现error接口
func (e *FetchError) Error() string {
	return fmt.Sprintf("抓取失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 返回底层错误
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// CollyFetcher 基于Colly的页面抓取适配器
// 职责: 抓取单个页面并返回页面中所有<a>标签的原始href字符串。
// 不做任何过滤和解析决策,分类交给URLClassifier,去重交给遍历引擎。
//
// 单线程顺序使用: 每次FetchLinks调用独占捕获状态,不支持并发调用。
type CollyFetcher struct {
	collector *colly.Collector

	// HTTP头部提供者 (可为nil)
	headerProvider models.HeaderProvider

	// 当前调用的捕获状态
	hrefs    []string
	fetchErr error
}

// NewCollyFetcher 创建抓取适配器
// timeout为HTTP请求超时(秒)。
func NewCollyFetcher(timeout int, headerProvider models.HeaderProvider) *CollyFetcher {
	// 自定义HTTP客户端: 禁用TLS证书验证,允许访问自签名或证书过期的站点
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Timeout: time.Duration(timeout) * time.Second,
	}

	// AllowURLRevisit: 适配器自身不记忆访问历史,至多一次抓取由引擎的
	// VisitedSet保证。IgnoreRobotsTxt: robots协议不在本工具的处理范围。
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)

	c.SetClient(httpClient)
	c.SetRequestTimeout(time.Duration(timeout) * time.Second)

	f := &CollyFetcher{
		collector:      c,
		headerProvider: headerProvider,
	}

	f.setupCallbacks()

	return f
}

// setupCallbacks 设置Colly回调
func (f *CollyFetcher) setupCallbacks() {
	// 访问前: 应用自定义HTTP头部
	f.collector.OnRequest(func(r *colly.Request) {
		if f.headerProvider != nil {
			headers, err := f.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
			} else {
				for name, values := range headers {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}
		utils.Debugf("抓取: %s", r.URL.String())
	})

	// 响应: 解压后提取<a>标签的原始href
	f.collector.OnResponse(func(r *colly.Response) {
		body := r.Body

		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressResponse(encoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", r.Request.URL, encoding, err)
				// 解压失败时仍尝试用原始body解析
			} else {
				body = decompressed
			}
		}

		f.hrefs = extractAnchorHrefs(body)
	})

	// 错误: 记录到捕获状态,由FetchLinks包装为FetchError返回
	f.collector.OnError(func(r *colly.Response, err error) {
		f.fetchErr = err
	})
}

// FetchLinks 抓取页面并返回所有<a>标签的原始href字符串
// 任何失败(网络、超时、HTTP错误状态)都包装为FetchError返回,
// 调用方决定恢复策略。
func (f *CollyFetcher) FetchLinks(rawURL string) ([]string, error) {
	f.hrefs = nil
	f.fetchErr = nil

	if err := f.collector.Visit(rawURL); err != nil {
		return nil, &FetchError{URL: rawURL, Cause: err}
	}

	if f.fetchErr != nil {
		return nil, &FetchError{URL: rawURL, Cause: f.fetchErr}
	}

	return f.hrefs, nil
}

// extractAnchorHrefs 从HTML文档中提取所有<a>标签的href属性值
// 返回原始字符串,不做绝对化、过滤和去重。
// html.Parse对非HTML内容也能容错解析,只是提取不到链接。
func extractAnchorHrefs(body []byte) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					hrefs = append(hrefs, attr.Val)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return hrefs
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
