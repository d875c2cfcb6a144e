package crawlers

import (
	"github.com/RecoveryAshes/GraphCrawl/internal/utils"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryGuard 内存防护器
// 职责: 采样系统可用内存,在低于安全保留值时通知遍历引擎提前收尾。
//
// 背景: frontier队列和链接图都随爬取无限增长,增长速度取决于目标站点
// 的链接密度,无法预先估计。防护器让长时间运行的爬取在内存耗尽前
// 正常结束并写出最终快照,而不是被OOM杀掉丢失全部进度。
type MemoryGuard struct {
	// 安全保留内存(字节),可用内存低于此值时触发
	reserveBytes uint64

	// 已触发标记 (只告警一次)
	triggered bool
}

// NewMemoryGuard 创建内存防护器
// reserveMB为安全保留内存(MB),0表示禁用防护。
func NewMemoryGuard(reserveMB int) *MemoryGuard {
	guard := &MemoryGuard{
		reserveBytes: uint64(reserveMB) * 1024 * 1024,
	}

	if reserveMB > 0 {
		if vmStat, err := mem.VirtualMemory(); err == nil {
			utils.Debugf("内存防护已启用: 系统总内存 %.2f GB, 安全保留 %d MB",
				float64(vmStat.Total)/(1024*1024*1024), reserveMB)
		}
	}

	return guard
}

// Enabled 防护是否启用
func (g *MemoryGuard) Enabled() bool {
	return g.reserveBytes > 0
}

// Check 采样可用内存,返回是否可以继续爬取
// 采样失败时按可继续处理(宁可继续爬取也不因监控故障中断任务)。
func (g *MemoryGuard) Check() bool {
	if !g.Enabled() {
		return true
	}

	vmStat, err := mem.VirtualMemory()
	if err != nil {
		utils.Warnf("采样系统内存失败: %v", err)
		return true
	}

	if vmStat.Available < g.reserveBytes {
		if !g.triggered {
			utils.Warnf("可用内存 %.0f MB 低于安全保留值 %.0f MB, 爬取将提前收尾",
				float64(vmStat.Available)/(1024*1024),
				float64(g.reserveBytes)/(1024*1024))
			g.triggered = true
		}
		return false
	}

	return true
}
