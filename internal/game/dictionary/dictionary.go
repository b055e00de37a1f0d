package dictionary

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

//go:embed words.txt
var defaultWords string

const (
	// MinWordLength 最短有效单词长度
	MinWordLength = 3
	// MaxWordLength 棋盘最长可拼单词长度
	MaxWordLength = 8
)

// Points 按单词长度计算分值
func Points(word string) int {
	switch n := len(word); {
	case n < MinWordLength:
		return 0
	case n <= 4:
		return 1
	case n == 5:
		return 2
	case n == 6:
		return 3
	case n == 7:
		return 5
	default:
		return 11
	}
}

// Dictionary 只读词典：单词 → 分值，附带前缀索引供求解器剪枝
type Dictionary struct {
	words    map[string]int
	prefixes map[string]struct{}
}

// New 由单词列表构建词典，单词统一转小写，非字母或过短的单词会被忽略
func New(words []string) *Dictionary {
	d := &Dictionary{
		words:    make(map[string]int, len(words)),
		prefixes: make(map[string]struct{}, len(words)*2),
	}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) < MinWordLength || !isAlpha(w) {
			continue
		}
		d.words[w] = Points(w)
		for i := 1; i < len(w); i++ {
			d.prefixes[w[:i]] = struct{}{}
		}
	}
	return d
}

// Read 从 reader 读取以空白分隔的单词
func Read(r io.Reader) (*Dictionary, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var words []string
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取词典失败: %w", err)
	}
	return New(words), nil
}

// Load 从文件加载词典
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

var (
	embedded     *Dictionary
	embeddedOnce sync.Once
)

// Default 返回内置词典
func Default() *Dictionary {
	embeddedOnce.Do(func() {
		embedded = New(strings.Fields(defaultWords))
	})
	return embedded
}

// LoadOrDefault 优先加载文件，失败时回退到内置词典
func LoadOrDefault(path string) *Dictionary {
	if path != "" {
		d, err := Load(path)
		if err == nil && d.Len() > 0 {
			log.Info().Str("path", path).Int("words", d.Len()).Msg("📖 词典已加载")
			return d
		}
		log.Warn().Err(err).Str("path", path).Msg("⚠️ 词典文件不可用，使用内置词典")
	}
	d := Default()
	log.Info().Int("words", d.Len()).Msg("📖 使用内置词典")
	return d
}

// Contains 单词是否在词典中
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[word]
	return ok
}

// Value 单词分值，不存在时 ok 为 false
func (d *Dictionary) Value(word string) (points int, ok bool) {
	points, ok = d.words[word]
	return points, ok
}

// HasPrefix 是否存在以 prefix 开头且更长的单词
func (d *Dictionary) HasPrefix(prefix string) bool {
	_, ok := d.prefixes[prefix]
	return ok
}

// Len 词典单词数
func (d *Dictionary) Len() int {
	return len(d.words)
}

// Words 返回全部单词（无序）
func (d *Dictionary) Words() []string {
	return lo.Keys(d.words)
}

func isAlpha(w string) bool {
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}
