package service

import (
	"html"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/wolfitem/newshub/internal/domain/model"
)

// FeedParser 定义订阅源解析的领域服务接口
type FeedParser interface {
	// Parse 将原始订阅源标记文本解析为频道信息和文章列表。
	// 解析是纯函数且永不失败：字段缺失或格式损坏时降级为空值。
	Parse(markup string) (model.ChannelMetadata, []model.Article)
}

// feedParser 实现FeedParser接口
type feedParser struct{}

// NewFeedParser 创建一个新的订阅源解析器实例
func NewFeedParser() FeedParser {
	return &feedParser{}
}

// Parse 解析订阅源标记文本
func (p *feedParser) Parse(markup string) (model.ChannelMetadata, []model.Article) {
	// 频道范围：优先取第一个channel块，其次feed块，都没有时把整个文档当作频道范围
	scope := firstTag(markup, "channel")
	if scope == "" {
		scope = firstTag(markup, "feed")
	}
	if scope == "" {
		scope = markup
	}

	meta := model.ChannelMetadata{
		Title:       cleanText(firstTag(scope, "title")),
		Description: cleanText(firstTag(scope, "description")),
		Link:        cleanText(firstTag(scope, "link")),
	}
	if meta.Link == "" {
		meta.Link = strings.TrimSpace(firstTagAttr(scope, "link", "href"))
	}

	// 按文档顺序扫描所有item块，RSS没有命中时尝试Atom的entry块
	blocks := tagBlocks(markup, "item")
	if len(blocks) == 0 {
		blocks = tagBlocks(markup, "entry")
	}

	articles := make([]model.Article, 0, len(blocks))
	for _, block := range blocks {
		articles = append(articles, buildArticle(block))
	}
	return meta, articles
}

// buildArticle 从单个item/entry块中提取文章字段
func buildArticle(block string) model.Article {
	a := model.Article{}

	a.Title = cleanText(firstTag(block, "title"))

	a.Link = cleanText(firstTag(block, "link"))
	if a.Link == "" {
		a.Link = strings.TrimSpace(firstTagAttr(block, "link", "href"))
	}

	a.Description = cleanText(firstTag(block, "description"))
	if a.Description == "" {
		a.Description = cleanText(firstTag(block, "summary"))
	}

	// 正文优先取content:encoded，其次content，都缺失时回退到描述
	content := cleanText(firstTag(block, "content:encoded"))
	if content == "" {
		content = cleanText(firstTag(block, "content"))
	}
	if content == "" {
		content = a.Description
	}
	a.Content = content

	a.PubDate = cleanText(firstTag(block, "pubDate"))
	if a.PubDate == "" {
		a.PubDate = cleanText(firstTag(block, "published"))
	}
	if a.PubDate == "" {
		a.PubDate = cleanText(firstTag(block, "updated"))
	}
	if a.PubDate != "" {
		// 无法解析的时间不报错，IsoDate保持为空
		if t, err := dateparse.ParseAny(a.PubDate); err == nil {
			a.IsoDate = t.UTC().Format(time.RFC3339)
		}
	}

	// 作者优先取author标签，其次dc:creator；Atom的author内嵌name子标签，统一去除标记
	author := cleanText(firstTag(block, "author"))
	if author == "" {
		author = cleanText(firstTag(block, "dc:creator"))
	}
	a.Author = stripHTML(author)

	// 分类保留文档顺序与重复项，丢弃空值
	for _, c := range tagBlocks(block, "category") {
		if v := cleanText(c); v != "" {
			a.Categories = append(a.Categories, v)
		}
	}

	// 纯文本只从正文（含描述回退）派生，绝不使用标题
	a.PlainText = stripHTML(a.Content)
	return a
}

// tagBlocks 返回文档中指定标签的所有内部内容，大小写不敏感，保持文档顺序。
// 缺失闭合标签时取到文档末尾，自闭合标签产生空内容。
func tagBlocks(doc, name string) []string {
	lower := strings.ToLower(doc)
	name = strings.ToLower(name)
	closeTag := "</" + name

	var blocks []string
	pos := 0
	for {
		i := indexOpenTag(lower, name, pos)
		if i < 0 {
			break
		}
		gt := strings.Index(lower[i:], ">")
		if gt < 0 {
			break
		}
		start := i + gt + 1
		// 自闭合标签没有内容
		if gt > 0 && lower[i+gt-1] == '/' {
			blocks = append(blocks, "")
			pos = start
			continue
		}
		j := strings.Index(lower[start:], closeTag)
		if j < 0 {
			blocks = append(blocks, doc[start:])
			break
		}
		blocks = append(blocks, doc[start:start+j])
		pos = start + j + len(closeTag)
	}
	return blocks
}

// firstTag 返回指定标签的第一个内部内容，不存在时返回空字符串
func firstTag(scope, name string) string {
	blocks := tagBlocks(scope, name)
	if len(blocks) == 0 {
		return ""
	}
	return blocks[0]
}

// firstTagAttr 返回指定标签第一次出现时某属性的值，用于Atom风格的link href
func firstTagAttr(scope, name, attr string) string {
	lower := strings.ToLower(scope)
	i := indexOpenTag(lower, strings.ToLower(name), 0)
	if i < 0 {
		return ""
	}
	gt := strings.Index(lower[i:], ">")
	if gt < 0 {
		return ""
	}
	tag := scope[i : i+gt]
	k := strings.Index(strings.ToLower(tag), strings.ToLower(attr)+"=")
	if k < 0 {
		return ""
	}
	rest := tag[k+len(attr)+1:]
	if rest == "" {
		return ""
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		return ""
	}
	end := strings.IndexByte(rest[1:], quote)
	if end < 0 {
		return ""
	}
	return rest[1 : 1+end]
}

// indexOpenTag 从pos开始查找标签的开始位置，要求标签名后紧跟边界字符，
// 避免content误匹配content:encoded之类的前缀冲突
func indexOpenTag(lower, name string, pos int) int {
	needle := "<" + name
	for {
		i := strings.Index(lower[pos:], needle)
		if i < 0 {
			return -1
		}
		i += pos
		next := i + len(needle)
		if next >= len(lower) {
			return -1
		}
		switch lower[next] {
		case '>', '/', ' ', '\t', '\r', '\n':
			return i
		}
		pos = next
	}
}

// cleanText 对提取出的文本做统一清洗：去CDATA包裹、实体解码、首尾空白修剪
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	for {
		start := strings.Index(s, "<![CDATA[")
		if start < 0 {
			break
		}
		end := strings.Index(s[start:], "]]>")
		if end < 0 {
			s = s[:start] + s[start+len("<![CDATA["):]
			break
		}
		s = s[:start] + s[start+len("<![CDATA["):start+end] + s[start+end+len("]]>"):]
	}
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// stripHTML 去除HTML标签并把连续空白折叠为单个空格
func stripHTML(content string) string {
	if content == "" {
		return ""
	}

	var text string
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		// goquery极少失败，兜底用手工扫描去标签，保证输出不含标记字符
		text = stripTagsManually(content)
	} else {
		text = doc.Text()
	}

	return strings.Join(strings.Fields(text), " ")
}

// stripTagsManually 手工扫描去除尖括号标签
func stripTagsManually(content string) string {
	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
