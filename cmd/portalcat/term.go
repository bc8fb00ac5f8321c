package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gookit/color"
	"golang.org/x/term"
)

var colors = []string{
	"#e21400", "#91580f", "#f8a700", "#f78b00",
	"#58dc00", "#287b00", "#a8f07a", "#4ae8c4",
	"#3b88eb", "#3824aa", "#a700ff", "#d300e7",
}

func getEventColor(event string) color.RGBColor {
	hash := 7
	for _, r := range event {
		hash = int(r) + (hash << 5) - hash
	}
	index := int(math.Abs(float64(hash % len(colors))))
	return color.Hex(colors[index])
}

type lineReader interface {
	ReadLine() (string, error)
}

type scanner struct {
	*bufio.Scanner
}

func (s scanner) ReadLine() (string, error) {
	if s.Scan() {
		return s.Text(), nil
	}
	if err := s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// syncWriter serializes writes coming from the socket's handlers and the
// input loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

// initTerm puts the terminal in raw mode if stdin is one, and reads plain
// lines from stdin otherwise.
func initTerm() (io.Writer, lineReader, func(code int), error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if !term.IsTerminal(0) {
		exitFunc := func(code int) { os.Exit(code) }
		go func() {
			<-c
			exitFunc(0)
		}()
		return &syncWriter{w: os.Stdout}, scanner{bufio.NewScanner(os.Stdin)}, exitFunc, nil
	}

	oldState, err := term.MakeRaw(0)
	if err != nil {
		return nil, nil, nil, err
	}

	exitFunc := func(code int) {
		term.Restore(0, oldState)
		fmt.Println()
		os.Exit(code)
	}
	go func() {
		<-c
		exitFunc(0)
	}()

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}

	t := term.NewTerminal(screen, "")
	t.SetPrompt(string(t.Escape.Blue) + "> " + string(t.Escape.Reset))
	return t, t, exitFunc, nil
}
