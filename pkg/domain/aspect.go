package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// AspectRatio は "16:9" のような幅:高さの比です。
type AspectRatio struct {
	W int
	H int
}

var (
	Landscape169 = AspectRatio{W: 16, H: 9}
	Portrait916  = AspectRatio{W: 9, H: 16}
)

// ParseAspectRatio は "W:H" 形式の文字列を解析します。
func ParseAspectRatio(s string) (AspectRatio, error) {
	w, h, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q: want W:H", s)
	}
	wi, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || wi <= 0 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio width in %q", s)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || hi <= 0 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio height in %q", s)
	}
	return AspectRatio{W: wi, H: hi}, nil
}

// String は "W:H" を返します。
func (a AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", a.W, a.H)
}

// Ratio は幅/高さの値です。
func (a AspectRatio) Ratio() float64 {
	return float64(a.W) / float64(a.H)
}

// Orientation はプロンプト用の向きの説明です。
func (a AspectRatio) Orientation() string {
	switch {
	case a.W > a.H:
		return "horizontal landscape"
	case a.W < a.H:
		return "vertical portrait"
	default:
		return "square"
	}
}
