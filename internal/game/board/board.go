package board

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	// Size 棋盘边长
	Size = 4
	// Cells 棋盘格子数
	Cells = Size * Size
	// VowelCells 强制替换为元音的格子数
	VowelCells = 4

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	vowels   = "AEIOUY"
)

// Board 4×4 大写字母棋盘，按行存储
type Board [Size][Size]byte

// Generate 随机生成棋盘：16 个随机字母，再随机挑 4 格改成元音
func Generate(rng *rand.Rand) Board {
	var b Board
	for r := range Size {
		for c := range Size {
			b[r][c] = alphabet[rng.IntN(len(alphabet))]
		}
	}
	for _, cell := range rng.Perm(Cells)[:VowelCells] {
		b[cell/Size][cell%Size] = vowels[rng.IntN(len(vowels))]
	}
	return b
}

// At 按格子下标取字母
func (b Board) At(cell int) byte {
	return b[cell/Size][cell%Size]
}

// Rows 每行一个字符串，如 "ABCD"
func (b Board) Rows() []string {
	rows := make([]string, Size)
	for r := range Size {
		rows[r] = string(b[r][:])
	}
	return rows
}

// Spec 线协议棋盘编码："A B C D,E F G H,I J K L,M N O P"
func (b Board) Spec() string {
	var sb strings.Builder
	for r := range Size {
		if r > 0 {
			sb.WriteByte(',')
		}
		for c := range Size {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(b[r][c])
		}
	}
	return sb.String()
}

// String 实现 fmt.Stringer
func (b Board) String() string {
	return b.Spec()
}

// ParseSpec 解析 Spec 编码，兼容末尾多余的逗号
func ParseSpec(spec string) (Board, error) {
	var b Board
	rows := strings.Split(strings.TrimSuffix(strings.TrimSpace(spec), ","), ",")
	if len(rows) != Size {
		return b, fmt.Errorf("棋盘应为 %d 行，实际 %d 行", Size, len(rows))
	}
	for r, row := range rows {
		letters := strings.Fields(row)
		if len(letters) != Size {
			return b, fmt.Errorf("第 %d 行应为 %d 个字母: %q", r+1, Size, row)
		}
		for c, l := range letters {
			if len(l) != 1 || l[0] < 'A' || l[0] > 'Z' {
				return b, fmt.Errorf("非法字母 %q", l)
			}
			b[r][c] = l[0]
		}
	}
	return b, nil
}

// FromRows 由 4 个 4 字母的字符串构建棋盘
func FromRows(rows ...string) (Board, error) {
	var b Board
	if len(rows) != Size {
		return b, fmt.Errorf("棋盘应为 %d 行，实际 %d 行", Size, len(rows))
	}
	for r, row := range rows {
		row = strings.ToUpper(row)
		if len(row) != Size {
			return b, fmt.Errorf("第 %d 行长度应为 %d: %q", r+1, Size, row)
		}
		for c := range Size {
			if row[c] < 'A' || row[c] > 'Z' {
				return b, fmt.Errorf("非法字母 %q", row[c])
			}
			b[r][c] = row[c]
		}
	}
	return b, nil
}
