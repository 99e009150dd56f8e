package util

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Writer buffers dump/diagnostic output from worker goroutines in a
// strings.Builder. When the Flush or Close method is called the buffer is
// emptied and sent to the assigned output writer through channel c.
type Writer struct {
	sb strings.Builder
	c  chan string
}

// ---------------------
// ----- Constants -----
// ---------------------

var wc chan string     // Write channel used for receiving data from worker goroutines.
var cc chan error      // Close channel used by main goroutine to signal to end write operations.
var wg *sync.WaitGroup // used for synchronising when I/O finished writing to output.

// ---------------------
// ----- Functions -----
// ---------------------

// Write writes a format string to the Writer's buffer.
func (w *Writer) Write(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

// WriteString writes a plain string to the Writer's buffer.
func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

// Flush empties the Writer's buffer and sends the buffer data to the
// designated output writer over the Writer's channel.
func (w *Writer) Flush() {
	w.c <- w.sb.String()
	w.sb = strings.Builder{}
}

// Close flushes the Writer's buffer, detaches the Writer from the shared
// channel (which stays open) and marks the Writer done on the wait group.
func (w *Writer) Close() {
	w.Flush()
	w.c = nil
	wg.Done()
}

// NewWriter returns a new Writer to be used by worker goroutines to write
// dump/diagnostic strings concurrently to the output buffer. Must not be
// called before the main goroutine has called ListenWrite.
func NewWriter() Writer {
	wg.Add(1)
	return Writer{
		sb: strings.Builder{},
		c:  wc,
	}
}

// ReadSource reads Verilog source from path, trying each directory in
// searchPaths in order when the file is not found relative to the working
// directory. An empty path means "read stdin": ReadSource then waits briefly
// for input before giving up.
func ReadSource(path string, searchPaths []string) (string, error) {
	if len(path) == 0 {
		return readStdin()
	}
	if b, err := os.ReadFile(path); err == nil {
		return string(b), nil
	}
	for _, dir := range searchPaths {
		if b, err := os.ReadFile(filepath.Join(dir, path)); err == nil {
			return string(b), nil
		}
	}
	return "", fmt.Errorf("could not find source file %q on search path %v", path, searchPaths)
}

// readStdin waits briefly for input on stdin, failing if none arrives.
func readStdin() (string, error) {
	c := make(chan string)
	cerr := make(chan error)

	go func(c chan string, cerr chan error) {
		defer close(c)
		defer close(cerr)
		reader := bufio.NewReader(os.Stdin)
		text, err := reader.ReadString(0)
		if err == nil {
			c <- text
		} else {
			cerr <- err
		}
	}(c, cerr)

	select {
	case <-time.After(500 * time.Millisecond):
		return "", errors.New("expected input from stdin, got none")
	case s := <-c:
		return s, nil
	case err := <-cerr:
		return "", err
	}
}

// ListenWrite listens for worker goroutine dump output. The received data is
// written to file if File pointer f is not nil, or stdout if f is nil. The
// function loops until a termination signal is sent using Close.
func ListenWrite(jobs int, f *os.File, wgg *sync.WaitGroup) {
	wg = wgg
	if jobs > 1 {
		wc = make(chan string, jobs+1)
	} else {
		wc = make(chan string, 1)
	}
	cc = make(chan error, 1) // Buffered to catch Close before the listener is invoked.
	var w *bufio.Writer
	if f != nil {
		w = bufio.NewWriter(f)
	} else {
		w = bufio.NewWriter(os.Stdout)
	}

	go func(wc chan string, cc chan error) {
		defer close(wc)
		defer close(cc)
		for {
			select {
			case s := <-wc:
				if _, err := w.WriteString(s); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
				if err := w.Flush(); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
			case <-cc:
				return
			}
		}
	}(wc, cc)
}

// Close sends the termination signal to the writer listener.
func Close() {
	cc <- nil
}
