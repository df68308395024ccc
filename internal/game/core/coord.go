package core

import (
	"sort"

	"github.com/kamstrup/intmap"
)

// Coordinate 棋盘坐标
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CoordinateSet 坐标集合
// 以 y*cols+x 作为键，行列交叉处的格子只记录一次
type CoordinateSet struct {
	cols int
	set  *intmap.Set[int]
}

// NewCoordinateSet 创建指定列数棋盘上的坐标集合
func NewCoordinateSet(cols int) *CoordinateSet {
	return &CoordinateSet{
		cols: cols,
		set:  intmap.NewSet[int](cols * 2),
	}
}

// Add 添加坐标，已存在时返回 false
func (s *CoordinateSet) Add(c Coordinate) bool {
	return s.set.Add(c.Y*s.cols + c.X)
}

// Contains 判断坐标是否在集合中
func (s *CoordinateSet) Contains(c Coordinate) bool {
	return s.set.Has(c.Y*s.cols + c.X)
}

// Len 集合大小
func (s *CoordinateSet) Len() int {
	if s == nil {
		return 0
	}
	return s.set.Len()
}

// Coordinates 按 (y, x) 排序返回所有坐标
func (s *CoordinateSet) Coordinates() []Coordinate {
	if s == nil {
		return nil
	}
	keys := make([]int, 0, s.set.Len())
	s.set.ForEach(func(k int) bool {
		keys = append(keys, k)
		return true
	})
	sort.Ints(keys)

	out := make([]Coordinate, len(keys))
	for i, k := range keys {
		out[i] = Coordinate{X: k % s.cols, Y: k / s.cols}
	}
	return out
}
