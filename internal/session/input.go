package session

// InputLine is a one-line edit buffer with a rune cursor.
type InputLine struct {
	runes []rune
	cur   int
}

func (l *InputLine) String() string { return string(l.runes) }
func (l *InputLine) Cursor() int    { return l.cur }
func (l *InputLine) Empty() bool    { return len(l.runes) == 0 }

func (l *InputLine) Set(s string) {
	l.runes = []rune(s)
	l.cur = len(l.runes)
}

func (l *InputLine) Insert(r rune) {
	l.runes = append(l.runes, 0)
	copy(l.runes[l.cur+1:], l.runes[l.cur:])
	l.runes[l.cur] = r
	l.cur++
}

// Backspace removes the rune before the cursor.
func (l *InputLine) Backspace() {
	if l.cur == 0 {
		return
	}
	l.runes = append(l.runes[:l.cur-1], l.runes[l.cur:]...)
	l.cur--
}

// Delete removes the rune under the cursor.
func (l *InputLine) Delete() {
	if l.cur >= len(l.runes) {
		return
	}
	l.runes = append(l.runes[:l.cur], l.runes[l.cur+1:]...)
}

func (l *InputLine) Left() {
	if l.cur > 0 {
		l.cur--
	}
}

func (l *InputLine) Right() {
	if l.cur < len(l.runes) {
		l.cur++
	}
}

func (l *InputLine) Home() { l.cur = 0 }
func (l *InputLine) End()  { l.cur = len(l.runes) }
