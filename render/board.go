package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/chessgen/game"
)

// ErrNotRenderable is returned when a state does not expose a chess board.
var ErrNotRenderable = errors.New("state does not expose a board")

// boarder is the slice of game.Chess the renderer actually needs.
type boarder interface {
	Board() *chess.Board
}

var (
	lightSquare = color.RGBA{R: 0xf0, G: 0xd9, B: 0xb5, A: 0xff}
	darkSquare  = color.RGBA{R: 0xb5, G: 0x88, B: 0x63, A: 0xff}
	whitePiece  = color.RGBA{R: 0xfa, G: 0xfa, B: 0xfa, A: 0xff}
	blackPiece  = color.RGBA{R: 0x14, G: 0x14, B: 0x14, A: 0xff}
)

var pieceLetters = map[chess.PieceType]string{
	chess.King:   "K",
	chess.Queen:  "Q",
	chess.Rook:   "R",
	chess.Bishop: "B",
	chess.Knight: "N",
	chess.Pawn:   "P",
}

// Board rasterizes chess positions to size x size RGB frames. Squares are
// drawn in the usual light/dark scheme with pieces as FEN letters, white
// at the bottom.
type Board struct {
	size int
	font *truetype.Font
}

// NewBoard returns a renderer producing frames of the given side length.
// size must be at least 8 pixels so every square gets at least one.
func NewBoard(size int) (*Board, error) {
	if size < 8 {
		return nil, errors.Errorf("frame size %d too small, need at least 8", size)
	}
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "parse font")
	}
	return &Board{size: size, font: f}, nil
}

// Size returns the side length of produced frames.
func (b *Board) Size() int { return b.size }

// Render draws the state's current position. States that do not expose a
// board fail with ErrNotRenderable; callers substitute the placeholder.
func (b *Board) Render(s game.State) (Frame, error) {
	br, ok := s.(boarder)
	if !ok {
		return Frame{}, errors.Wrapf(ErrNotRenderable, "%T", s)
	}

	img := image.NewRGBA(image.Rect(0, 0, b.size, b.size))
	sq := b.size / 8

	// Squares. The remainder when size is not divisible by 8 stays dark.
	draw.Draw(img, img.Bounds(), image.NewUniform(darkSquare), image.Point{}, draw.Src)
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			if (rank+file)%2 == 0 {
				continue
			}
			r := image.Rect(file*sq, (7-rank)*sq, (file+1)*sq, (8-rank)*sq)
			draw.Draw(img, r, image.NewUniform(lightSquare), image.Point{}, draw.Src)
		}
	}

	fc := freetype.NewContext()
	fc.SetDPI(72)
	fc.SetFont(b.font)
	fc.SetFontSize(float64(sq) * 0.8)
	fc.SetClip(img.Bounds())
	fc.SetDst(img)

	for square, piece := range br.Board().SquareMap() {
		if piece == chess.NoPiece {
			continue
		}
		letter := pieceLetters[piece.Type()]
		if piece.Color() == chess.Black {
			letter = strings.ToLower(letter)
			fc.SetSrc(image.NewUniform(blackPiece))
		} else {
			fc.SetSrc(image.NewUniform(whitePiece))
		}
		file := int(square) % 8
		rank := int(square) / 8
		x := file*sq + sq/5
		y := (7-rank)*sq + (sq*4)/5
		if _, err := fc.DrawString(letter, freetype.Pt(x, y)); err != nil {
			return Frame{}, errors.Wrapf(err, "draw %s at %v", letter, square)
		}
	}

	return fromRGBA(img), nil
}

// fromRGBA strips the alpha channel into an interleaved RGB frame.
func fromRGBA(img *image.RGBA) Frame {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	pix := make([]uint8, w*h*Channels)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := img.PixOffset(x, y)
			dst := (y*w + x) * Channels
			pix[dst] = img.Pix[src]
			pix[dst+1] = img.Pix[src+1]
			pix[dst+2] = img.Pix[src+2]
		}
	}
	return Frame{Width: w, Height: h, Channels: Channels, Pix: pix}
}
