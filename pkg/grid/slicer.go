package grid

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"

	"github.com/shouni/go-storyboard-kit/pkg/domain"

	_ "github.com/kolesa-team/go-webp/decoder"
	"golang.org/x/image/draw"
)

const (
	// ratioTolerance 以内の差であれば生のタイルをそのまま使います。
	ratioTolerance = 0.01
	// safetyMargin は継ぎ目や縁のアーティファクトを避けるための内側への縮小率です。
	safetyMargin = 0.005
)

// Geometry は1タイル分の切り出し計算結果です。全タイルで共通です。
type Geometry struct {
	RawW, RawH       int // 生のタイルサイズ
	CropX, CropY     int // タイル内での中央クロップの起点
	CropW, CropH     int // 比率補正後のクロップサイズ
	MarginX, MarginY int
	SrcW, SrcH       int // マージン適用後にソースから読む範囲
	OutW, OutH       int // 出力サイズ（目標比率に厳密に合わせたもの）
}

// ComputeGeometry は合成画像のサイズとレイアウトから切り出し位置を計算します。
func ComputeGeometry(imgW, imgH int, l Layout, ar domain.AspectRatio) (Geometry, error) {
	if l.Rows <= 0 || l.Cols <= 0 {
		return Geometry{}, fmt.Errorf("invalid layout %s", l)
	}
	if ar.W <= 0 || ar.H <= 0 {
		return Geometry{}, fmt.Errorf("invalid aspect ratio %s", ar)
	}

	g := Geometry{RawW: imgW / l.Cols, RawH: imgH / l.Rows}
	if g.RawW <= 0 || g.RawH <= 0 {
		return Geometry{}, fmt.Errorf("image %dx%d is too small for %s grid", imgW, imgH, l)
	}

	target := ar.Ratio()
	rawRatio := float64(g.RawW) / float64(g.RawH)
	g.CropW, g.CropH = g.RawW, g.RawH

	switch {
	case math.Abs(rawRatio-target) < ratioTolerance:
		// そのまま
	case rawRatio > target:
		g.CropW = int(math.Floor(float64(g.RawH) * target))
		g.CropX = (g.RawW - g.CropW) / 2
	default:
		g.CropH = int(math.Floor(float64(g.RawW) / target))
		g.CropY = (g.RawH - g.CropH) / 2
	}

	g.MarginX = int(math.Floor(float64(g.CropW) * safetyMargin))
	g.MarginY = int(math.Floor(float64(g.CropH) * safetyMargin))
	g.SrcW = g.CropW - 2*g.MarginX
	g.SrcH = g.CropH - 2*g.MarginY

	// 出力サイズは片方の辺から厳密な比率で計算し直す
	if ar.W >= ar.H {
		g.OutW = g.SrcW
		g.OutH = int(math.Round(float64(g.OutW) * float64(ar.H) / float64(ar.W)))
	} else {
		g.OutH = g.SrcH
		g.OutW = int(math.Round(float64(g.OutH) * float64(ar.W) / float64(ar.H)))
	}
	g.OutW = max(g.OutW, 1)
	g.OutH = max(g.OutH, 1)
	return g, nil
}

// SourceRect は行優先 i 番目のタイルについて、ソース画像上の読み取り範囲を返します。
func (g Geometry) SourceRect(i int, l Layout) image.Rectangle {
	row, col := i/l.Cols, i%l.Cols
	x := col*g.RawW + g.CropX + g.MarginX
	y := row*g.RawH + g.CropY + g.MarginY
	return image.Rect(x, y, x+g.SrcW, y+g.SrcH)
}

// Decode は合成画像をデコードします。PNG / JPEG / GIF / WebP に対応します。
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageLoad, err)
	}
	return img, nil
}

// SliceImage はデコード済みの合成画像から actual 枚のタイルを切り出します。
// プレースホルダのセルは出力しません。
func SliceImage(img image.Image, actual int, l Layout, ar domain.AspectRatio) ([]image.Image, error) {
	if actual <= 0 || actual > l.Cells() {
		return nil, fmt.Errorf("actual count %d out of range for %s grid", actual, l)
	}
	b := img.Bounds()
	g, err := ComputeGeometry(b.Dx(), b.Dy(), l, ar)
	if err != nil {
		return nil, err
	}

	tiles := make([]image.Image, 0, actual)
	for i := 0; i < actual; i++ {
		src := g.SourceRect(i, l).Add(b.Min)
		dst := image.NewRGBA(image.Rect(0, 0, g.OutW, g.OutH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
		tiles = append(tiles, dst)
	}
	return tiles, nil
}

// Slice は合成画像のバイト列を切り出し、PNG エンコードしたタイルを返します。
// 途中で失敗した場合、部分的な結果は返しません。
func Slice(data []byte, actual int, l Layout, ar domain.AspectRatio) ([][]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	tiles, err := SliceImage(img, actual, l, ar)
	if err != nil {
		return nil, err
	}

	out := make([][]byte, 0, len(tiles))
	for i, tile := range tiles {
		var buf bytes.Buffer
		if err := png.Encode(&buf, tile); err != nil {
			return nil, fmt.Errorf("tile %d encode: %w", i, err)
		}
		out = append(out, buf.Bytes())
	}
	return out, nil
}

// PNGDataURI は PNG バイト列を data URI に変換します。
func PNGDataURI(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}
