package core

import "fmt"

const (
	// PieceCount 方块目录中的形状数量
	PieceCount = 15

	// PieceSize 方块掩码边长
	PieceSize = 3
)

// Mask 方块 3x3 掩码，按 [x][y] 索引
type Mask [PieceSize][PieceSize]int

// shape 目录中的一个基础形状
type shape struct {
	name   string
	blocks Mask
}

// catalog 15 种基础形状，编号即下标；格子值为 1 表示占用
// 掩码按行书写（外层为 y，内层为 x），createPiece 时转置为 [x][y]
var catalog = [PieceCount]shape{
	{"Line", Mask{{0, 0, 0}, {1, 1, 1}, {0, 0, 0}}},
	{"C", Mask{{0, 0, 0}, {1, 1, 1}, {1, 0, 1}}},
	{"Plus", Mask{{0, 1, 0}, {1, 1, 1}, {0, 1, 0}}},
	{"Dot", Mask{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}}},
	{"Square", Mask{{1, 1, 0}, {1, 1, 0}, {0, 0, 0}}},
	{"L", Mask{{0, 0, 0}, {1, 1, 1}, {0, 0, 1}}},
	{"J", Mask{{0, 0, 1}, {1, 1, 1}, {0, 0, 0}}},
	{"S", Mask{{0, 0, 0}, {1, 1, 0}, {0, 1, 1}}},
	{"Z", Mask{{0, 1, 1}, {1, 1, 0}, {0, 0, 0}}},
	{"T", Mask{{1, 0, 0}, {1, 1, 0}, {1, 0, 0}}},
	{"X", Mask{{1, 0, 1}, {0, 1, 0}, {1, 0, 1}}},
	{"Corner", Mask{{0, 0, 0}, {1, 1, 0}, {1, 0, 0}}},
	{"Inverse Corner", Mask{{1, 0, 0}, {1, 1, 0}, {0, 0, 0}}},
	{"Diagonal", Mask{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}},
	{"Double", Mask{{0, 1, 0}, {0, 1, 0}, {0, 0, 0}}},
}

// GamePiece 游戏方块
// 形状编号不可变，旋转只改变方向；每个实例独立持有掩码，不与其他实例共享
type GamePiece struct {
	index    int
	name     string
	base     Mask // 方向 0 时的掩码，格子值为颜色编号
	rotation int  // 0..3，每步顺时针 90°
	blocks   Mask // 当前方向的掩码
}

// CreatePiece 根据编号创建方块
func CreatePiece(index int) (*GamePiece, error) {
	if index < 0 || index >= PieceCount {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidPieceIndex, index, PieceCount)
	}

	def := catalog[index]
	value := index + 1

	var base Mask
	for y := 0; y < PieceSize; y++ {
		for x := 0; x < PieceSize; x++ {
			if def.blocks[y][x] != 0 {
				base[x][y] = value
			}
		}
	}

	return &GamePiece{
		index:  index,
		name:   def.name,
		base:   base,
		blocks: base,
	}, nil
}

// MustCreatePiece 创建方块，编号非法时 panic（仅用于已校验过的编号）
func MustCreatePiece(index int) *GamePiece {
	p, err := CreatePiece(index)
	if err != nil {
		panic(err)
	}
	return p
}

// Index 形状编号
func (p *GamePiece) Index() int { return p.index }

// Name 形状名称
func (p *GamePiece) Name() string { return p.name }

// Value 颜色编号，即写入棋盘的格子值
func (p *GamePiece) Value() int { return p.index + 1 }

// Rotation 当前方向 (0..3)
func (p *GamePiece) Rotation() int { return p.rotation }

// Blocks 返回当前方向掩码的副本
func (p *GamePiece) Blocks() Mask { return p.blocks }

// Rotate 顺时针旋转一步
func (p *GamePiece) Rotate() {
	p.RotateBy(1)
}

// RotateBy 顺时针旋转 n 步，负数表示逆时针
func (p *GamePiece) RotateBy(n int) {
	p.rotation = ((p.rotation+n)%4 + 4) % 4
	p.blocks = rotateMask(p.base, p.rotation)
}

// Clone 复制一个独立的方块
func (p *GamePiece) Clone() *GamePiece {
	c := *p
	return &c
}

// String 实现 fmt.Stringer
func (p *GamePiece) String() string {
	return fmt.Sprintf("%s(%d)@%d", p.name, p.index, p.rotation*90)
}

// rotateMask 从基础掩码重新计算指定方向的掩码
func rotateMask(base Mask, turns int) Mask {
	out := base
	for i := 0; i < turns; i++ {
		var next Mask
		for x := 0; x < PieceSize; x++ {
			for y := 0; y < PieceSize; y++ {
				// 顺时针：(x, y) -> (size-1-y, x)
				next[PieceSize-1-y][x] = out[x][y]
			}
		}
		out = next
	}
	return out
}
