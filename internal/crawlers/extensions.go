package crawlers

// DefaultIgnoredExtensions 内置的非HTML资源扩展名忽略列表
// 这些链接指向图片/压缩包/文档/媒体等资源文件,不是网页,不参与遍历。
var DefaultIgnoredExtensions = []string{
	// 压缩包
	"7z", "7zip", "bz2", "rar", "tar", "tar.gz", "xz", "zip",

	// 图片
	"mng", "pct", "bmp", "gif", "jpg", "jpeg", "png", "pst", "psp",
	"tif", "tiff", "ai", "drw", "dxf", "eps", "ps", "svg", "cdr", "ico",

	// 音频
	"mp3", "wma", "ogg", "wav", "ra", "aac", "mid", "au", "aiff",

	// 视频
	"3gp", "asf", "asx", "avi", "mov", "mpg", "qt", "rm", "swf", "wmv",
	"m4a", "m4v", "flv", "webm",

	// 办公文档
	"xls", "xlsx", "ppt", "pptx", "pps", "doc", "docx", "odt", "ods",
	"odg", "odp",

	// 其他
	"css", "pdf", "exe", "bin", "rss", "dmg", "iso", "apk",
}
