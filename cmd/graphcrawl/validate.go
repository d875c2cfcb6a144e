package main

import (
	"fmt"
	"net/url"

	"github.com/RecoveryAshes/GraphCrawl/internal/models"
)

// ValidateURL 验证URL格式
func ValidateURL(urlStr string) error {
	return models.ValidateURL(urlStr)
}

// ValidateFlags 验证命令行标志
func ValidateFlags(
	targetURL string,
	maxNodes int,
	checkpointInterval int,
	delayMin int,
	delayMax int,
	timeout int,
) error {
	// 验证URL
	if targetURL != "" {
		if err := ValidateURL(targetURL); err != nil {
			return fmt.Errorf("无效的种子URL: %w", err)
		}
	}

	// 验证节点上限
	if maxNodes < 0 {
		return fmt.Errorf("节点上限不能为负数,当前值: %d", maxNodes)
	}

	// 验证检查点间隔 (0表示使用配置文件/默认值)
	if checkpointInterval < 0 {
		return fmt.Errorf("检查点间隔不能为负数,当前值: %d", checkpointInterval)
	}

	// 验证休眠区间 (-1表示使用配置文件/默认值)
	if delayMin >= 0 && delayMax >= 0 && delayMax < delayMin {
		return fmt.Errorf("休眠上限(%d)不能小于休眠下限(%d)", delayMax, delayMin)
	}
	if delayMax > 60 {
		return fmt.Errorf("休眠上限必须在0-60秒之间,当前值: %d", delayMax)
	}

	// 验证超时 (0表示使用配置文件/默认值)
	if timeout < 0 || timeout > 300 {
		return fmt.Errorf("超时必须在0-300秒之间,当前值: %d", timeout)
	}

	return nil
}

// ValidateURLFile 验证URL文件路径
func ValidateURLFile(filepath string) error {
	if filepath == "" {
		return fmt.Errorf("URL文件路径不能为空")
	}
	// 文件存在性检查将在运行时进行
	return nil
}

// NormalizeURL 规范化URL
func NormalizeURL(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	// 如果没有协议,默认使用https
	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
