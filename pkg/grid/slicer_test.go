package grid

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// makeGrid は各セルを別々の色で塗った合成画像を作ります。
func makeGrid(t *testing.T, w, h int, l Layout) ([]byte, []color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	colors := make([]color.RGBA, l.Cells())
	for i := range colors {
		colors[i] = color.RGBA{R: uint8(20 * i), G: uint8(255 - 20*i), B: uint8(40 + 10*i), A: 255}
	}
	cw, ch := w/l.Cols, h/l.Rows
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			col := min(x/cw, l.Cols-1)
			row := min(y/ch, l.Rows-1)
			img.SetRGBA(x, y, colors[row*l.Cols+col])
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), colors
}

func TestComputeGeometry_KeepsAspectRatio(t *testing.T) {
	ratios := []domain.AspectRatio{domain.Landscape169, domain.Portrait916, {W: 4, H: 3}, {W: 1, H: 1}}
	sizes := [][2]int{{1920, 1080}, {2048, 2048}, {1080, 1920}, {1537, 1023}, {3000, 1000}, {999, 2001}}
	layouts := []Layout{{2, 2}, {3, 3}}

	for _, ar := range ratios {
		for _, sz := range sizes {
			for _, l := range layouts {
				g, err := ComputeGeometry(sz[0], sz[1], l, ar)
				if err != nil {
					t.Fatalf("ComputeGeometry(%v, %v, %v): %v", sz, l, ar, err)
				}
				got := float64(g.OutW) / float64(g.OutH)
				// 丸め誤差は1ピクセル分まで
				tol := ar.Ratio() / float64(min(g.OutW, g.OutH))
				if math.Abs(got-ar.Ratio()) > tol {
					t.Errorf("%v %v %v: ratio %.5f, want %.5f (out %dx%d)", sz, l, ar, got, ar.Ratio(), g.OutW, g.OutH)
				}
				if g.SrcW > g.RawW || g.SrcH > g.RawH {
					t.Errorf("%v %v %v: source %dx%d exceeds tile %dx%d", sz, l, ar, g.SrcW, g.SrcH, g.RawW, g.RawH)
				}
			}
		}
	}
}

func TestComputeGeometry_Crop(t *testing.T) {
	t.Run("比率が一致していればクロップしない", func(t *testing.T) {
		g, err := ComputeGeometry(1920, 1080, Layout{3, 3}, domain.Landscape169)
		if err != nil {
			t.Fatal(err)
		}
		if g.RawW != 640 || g.RawH != 360 || g.CropW != 640 || g.CropX != 0 {
			t.Errorf("予期しないジオメトリ: %+v", g)
		}
		if g.MarginX != 3 || g.MarginY != 1 {
			t.Errorf("マージンが不正です: %+v", g)
		}
		if g.OutW != 634 || g.OutH != 357 {
			t.Errorf("出力サイズが不正です: %dx%d", g.OutW, g.OutH)
		}
	})

	t.Run("横長すぎるタイルは幅を中央クロップ", func(t *testing.T) {
		g, err := ComputeGeometry(2000, 1000, Layout{2, 2}, domain.AspectRatio{W: 1, H: 1})
		if err != nil {
			t.Fatal(err)
		}
		if g.CropW != 500 || g.CropX != 250 || g.CropH != 500 {
			t.Errorf("予期しないクロップ: %+v", g)
		}
	})

	t.Run("縦長すぎるタイルは高さを中央クロップ", func(t *testing.T) {
		g, err := ComputeGeometry(2048, 2048, Layout{2, 2}, domain.Landscape169)
		if err != nil {
			t.Fatal(err)
		}
		if g.CropH != 576 || g.CropY != (1024-576)/2 {
			t.Errorf("予期しないクロップ: %+v", g)
		}
	})
}

func TestSlice(t *testing.T) {
	l := Layout{Rows: 3, Cols: 3}
	data, colors := makeGrid(t, 960, 540, l)

	for n := 1; n <= 9; n++ {
		tiles, err := Slice(data, n, l, domain.Landscape169)
		if err != nil {
			t.Fatalf("Slice(%d): %v", n, err)
		}
		if len(tiles) != n {
			t.Fatalf("Slice(%d) returned %d tiles", n, len(tiles))
		}
	}

	tiles, err := Slice(data, 5, l, domain.Landscape169)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range tiles {
		img, err := png.Decode(bytes.NewReader(b))
		if err != nil {
			t.Fatalf("tile %d decode: %v", i, err)
		}
		bounds := img.Bounds()
		c := color.RGBAModel.Convert(img.At(bounds.Dx()/2, bounds.Dy()/2)).(color.RGBA)
		if c != colors[i] {
			t.Errorf("tile %d center = %v, want %v (row-major order)", i, c, colors[i])
		}
	}
}

func TestSlice_Errors(t *testing.T) {
	t.Run("デコード失敗は ErrImageLoad", func(t *testing.T) {
		_, err := Slice([]byte("not an image"), 1, Layout{2, 2}, domain.Landscape169)
		if !errors.Is(err, domain.ErrImageLoad) {
			t.Errorf("ErrImageLoad を期待しましたが %v でした", err)
		}
	})

	t.Run("セル数を超える枚数はエラー", func(t *testing.T) {
		data, _ := makeGrid(t, 200, 200, Layout{2, 2})
		if _, err := Slice(data, 5, Layout{2, 2}, domain.Landscape169); err == nil {
			t.Error("エラーになるはずです")
		}
	})
}

func TestPNGDataURI(t *testing.T) {
	uri := PNGDataURI([]byte{1, 2, 3})
	if uri != "data:image/png;base64,AQID" {
		t.Errorf("unexpected data URI: %s", uri)
	}
}
