package core

import "fmt"

// Grid 游戏棋盘
// cells 按 [x][y] 索引，0 表示空，1..15 为方块颜色编号；创建后尺寸不可变
type Grid struct {
	cols  int
	rows  int
	cells [][]int
}

// NewGrid 创建 cols x rows 的空棋盘
func NewGrid(cols, rows int) *Grid {
	cells := make([][]int, cols)
	for x := range cells {
		cells[x] = make([]int, rows)
	}
	return &Grid{
		cols:  cols,
		rows:  rows,
		cells: cells,
	}
}

// Cols 列数
func (g *Grid) Cols() int { return g.cols }

// Rows 行数
func (g *Grid) Rows() int { return g.rows }

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.cols && y >= 0 && y < g.rows
}

// Get 获取格子值
func (g *Grid) Get(x, y int) (int, error) {
	if !g.inBounds(x, y) {
		return 0, fmt.Errorf("%w: (%d,%d) on %dx%d grid", ErrOutOfBounds, x, y, g.cols, g.rows)
	}
	return g.cells[x][y], nil
}

// Set 设置格子值，不做碰撞检查
func (g *Grid) Set(x, y, value int) error {
	if !g.inBounds(x, y) {
		return fmt.Errorf("%w: (%d,%d) on %dx%d grid", ErrOutOfBounds, x, y, g.cols, g.rows)
	}
	g.cells[x][y] = value
	return nil
}

// CanPlayPiece 判断方块能否以 (x, y) 为中心放下
// 掩码中心 (1,1) 对齐到 (x, y)；任一非空格子越界或目标格已占用即整体拒绝
func (g *Grid) CanPlayPiece(piece *GamePiece, x, y int) bool {
	blocks := piece.Blocks()
	for bx := 0; bx < PieceSize; bx++ {
		for by := 0; by < PieceSize; by++ {
			if blocks[bx][by] == 0 {
				continue
			}
			gx, gy := x+bx-1, y+by-1
			if !g.inBounds(gx, gy) || g.cells[gx][gy] != 0 {
				return false
			}
		}
	}
	return true
}

// PlayPiece 把方块写入棋盘
// 调用方必须先通过 CanPlayPiece 校验；这里不做任何检查，越界写入会直接 panic
func (g *Grid) PlayPiece(piece *GamePiece, x, y int) {
	blocks := piece.Blocks()
	for bx := 0; bx < PieceSize; bx++ {
		for by := 0; by < PieceSize; by++ {
			if blocks[bx][by] == 0 {
				continue
			}
			g.cells[x+bx-1][y+by-1] = blocks[bx][by]
		}
	}
}

// Clear 清空整个棋盘（用于预览棋盘切换，不在对局中使用）
func (g *Grid) Clear() {
	for x := range g.cells {
		clear(g.cells[x])
	}
}

// ClearCells 清空集合中的所有格子
func (g *Grid) ClearCells(set *CoordinateSet) {
	for _, c := range set.Coordinates() {
		g.cells[c.X][c.Y] = 0
	}
}

// columnFull 整列所有格子均非空
func (g *Grid) columnFull(x int) bool {
	for y := 0; y < g.rows; y++ {
		if g.cells[x][y] == 0 {
			return false
		}
	}
	return true
}

// rowFull 整行所有格子均非空
func (g *Grid) rowFull(y int) bool {
	for x := 0; x < g.cols; x++ {
		if g.cells[x][y] == 0 {
			return false
		}
	}
	return true
}

// Snapshot 返回按 [x][y] 索引的棋盘副本
func (g *Grid) Snapshot() [][]int {
	out := make([][]int, g.cols)
	for x := range g.cells {
		out[x] = append([]int(nil), g.cells[x]...)
	}
	return out
}
