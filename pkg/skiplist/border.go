package skiplist

import (
	"errors"
	"strconv"
	"strings"
)

const (
	negativeInf int8 = -1
	positiveInf int8 = 1
)

// ScoreBorder 表示 score 区间的一个端点
// Inf 非零时 Value/Exclude 无意义
type ScoreBorder struct {
	Inf     int8
	Value   float64
	Exclude bool
}

var (
	NegativeInfBorder = &ScoreBorder{Inf: negativeInf}
	PositiveInfBorder = &ScoreBorder{Inf: positiveInf}
)

var ErrInvalidBorder = errors.New("min or max is not a float")

// Less 作为下界时 value 是否在界内
func (b *ScoreBorder) Less(value float64) bool {
	if b.Inf == negativeInf {
		return true
	}
	if b.Inf == positiveInf {
		return false
	}
	if b.Exclude {
		return b.Value < value
	}
	return b.Value <= value
}

// Greater 作为上界时 value 是否在界内
func (b *ScoreBorder) Greater(value float64) bool {
	if b.Inf == negativeInf {
		return false
	}
	if b.Inf == positiveInf {
		return true
	}
	if b.Exclude {
		return b.Value > value
	}
	return b.Value >= value
}

// ParseScoreBorder 解析 "-inf", "+inf", "(1.5", "3" 形式的端点
func ParseScoreBorder(s string) (*ScoreBorder, error) {
	switch s {
	case "-inf":
		return NegativeInfBorder, nil
	case "inf", "+inf":
		return PositiveInfBorder, nil
	}
	if strings.HasPrefix(s, "(") {
		value, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return nil, ErrInvalidBorder
		}
		return &ScoreBorder{Value: value, Exclude: true}, nil
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, ErrInvalidBorder
	}
	return &ScoreBorder{Value: value}, nil
}

// [min, max] 是否必然为空, 与列表内容无关
func emptyRange(min *ScoreBorder, max *ScoreBorder) bool {
	if min.Inf == negativeInf || max.Inf == positiveInf {
		return false
	}
	if min.Inf == positiveInf || max.Inf == negativeInf {
		return true
	}
	return min.Value > max.Value ||
		(min.Value == max.Value && (min.Exclude || max.Exclude))
}
