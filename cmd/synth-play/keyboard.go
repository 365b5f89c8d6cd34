package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-subsynth/internal/stream"
	"golang.org/x/term"
)

// Two-row piano layout: the home row plays white keys, the row above the
// black keys, starting at C.
var keyOffsets = map[byte]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5, 't': 6,
	'g': 7, 'y': 8, 'h': 9, 'u': 10, 'j': 11, 'k': 12, 'o': 13, 'l': 14,
}

func keyToNote(b byte, base int) (int, bool) {
	off, ok := keyOffsets[b]
	if !ok {
		return 0, false
	}
	n := base + off
	if n < 0 || n > 127 {
		return 0, false
	}
	return n, true
}

// playKeyboard turns key presses from in into note events until q, Ctrl-C,
// EOF or ctx cancellation. z and x shift the octave; space releases the note.
func playKeyboard(ctx context.Context, in io.Reader, r *stream.Reader, base, velocity int) error {
	keys := make(chan byte)
	errc := make(chan error, 1)
	go func() {
		br := bufio.NewReader(in)
		for {
			b, err := br.ReadByte()
			if err != nil {
				errc <- err
				return
			}
			select {
			case keys <- b:
			case <-ctx.Done():
				return
			}
		}
	}()

	current := -1
	release := func() {
		if current >= 0 {
			r.NoteOff(current)
			current = -1
		}
	}
	defer release()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if err == io.EOF {
				return nil
			}
			return err
		case b := <-keys:
			switch b {
			case 'q', 0x03:
				return nil
			case ' ':
				release()
			case 'z':
				if base-12 >= 0 {
					base -= 12
				}
			case 'x':
				if base+12 <= 115 {
					base += 12
				}
			default:
				n, ok := keyToNote(b, base)
				if !ok {
					continue
				}
				release()
				if r.NoteOn(n, velocity) {
					current = n
				}
			}
		}
	}
}

// withRawTerminal runs fn with stdin in raw mode when it is a terminal.
func withRawTerminal(fn func() error) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fn()
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)
	return fn()
}
