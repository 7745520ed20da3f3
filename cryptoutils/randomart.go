package cryptoutils

import "strings"

const (
	artWidth   = 17
	artHeight  = 9
	artSymbols = " .o+=*BOX@%&#/^"
)

// Randomart renders digest as an OpenSSH-style "drunken bishop" picture so
// fingerprints can be compared at a glance. The bishop starts in the centre
// and every byte moves it four times, two bits per move, low bits first.
func Randomart(digest []byte, title string) string {
	var field [artHeight][artWidth]int
	x, y := artWidth/2, artHeight/2
	startX, startY := x, y

	for _, b := range digest {
		for i := 0; i < 4; i++ {
			if b&1 != 0 {
				x++
			} else {
				x--
			}
			if b&2 != 0 {
				y++
			} else {
				y--
			}
			x = max(0, min(x, artWidth-1))
			y = max(0, min(y, artHeight-1))
			if field[y][x] < len(artSymbols)-1 {
				field[y][x]++
			}
			b >>= 2
		}
	}

	var sb strings.Builder
	sb.WriteString(artBorder(title))
	sb.WriteByte('\n')
	for row := 0; row < artHeight; row++ {
		sb.WriteByte('|')
		for col := 0; col < artWidth; col++ {
			switch {
			case row == startY && col == startX:
				sb.WriteByte('S')
			case row == y && col == x:
				sb.WriteByte('E')
			default:
				sb.WriteByte(artSymbols[field[row][col]])
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(artBorder(""))
	return sb.String()
}

func artBorder(title string) string {
	if title != "" {
		title = "[" + title + "]"
	}
	if len(title) > artWidth {
		title = title[:artWidth]
	}
	left := (artWidth - len(title)) / 2
	return "+" + strings.Repeat("-", left) + title + strings.Repeat("-", artWidth-left-len(title)) + "+"
}
