package question

import "strconv"

var letters = []string{
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "j",
	"k", "l", "m", "n", "o", "p", "q", "r", "s", "t",
}

var romans = []string{
	"i", "ii", "iii", "iv", "v", "vi", "vii", "viii", "ix", "x",
	"xi", "xii", "xiii", "xiv", "xv", "xvi", "xvii", "xviii", "xix", "xx",
}

// Label returns the label for the index-th (0-based) node at level.
// Sequences that run out fall back to "(n)".
func Label(level, index int) string {
	if index < 0 {
		return "(" + strconv.Itoa(index+1) + ")"
	}
	var seq []string
	switch level {
	case LevelMain:
		return strconv.Itoa(index+1) + "."
	case LevelNested:
		seq = romans
	default:
		seq = letters
	}
	if index < len(seq) {
		return seq[index] + ")"
	}
	return "(" + strconv.Itoa(index+1) + ")"
}
