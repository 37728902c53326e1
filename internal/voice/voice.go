// Package voice turns speech into text through an external recognizer.
package voice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrUnsupported means no recognizer is available on this machine. Voice
// input should be disabled with a hint, not shown as a failure.
var ErrUnsupported = errors.New("speech recognition is not available")

const partialPrefix = "partial:"

// Transcript is one recognized utterance.
type Transcript struct {
	Text  string
	Final bool
}

type Recognizer interface {
	Available() bool
	// Start listens until ctx is done or the recognizer exits. The channel
	// is closed when listening stops.
	Start(ctx context.Context) (<-chan Transcript, error)
}

// CommandRecognizer runs a program that writes one transcript per line on
// stdout. Lines starting with "partial:" are interim results and are not
// delivered. The locale is passed as THRONEMIND_LOCALE.
type CommandRecognizer struct {
	Command string
	Locale  string
}

func NewCommandRecognizer(command, locale string) *CommandRecognizer {
	return &CommandRecognizer{Command: strings.TrimSpace(command), Locale: locale}
}

func (r *CommandRecognizer) argv() []string {
	return strings.Fields(r.Command)
}

func (r *CommandRecognizer) Available() bool {
	args := r.argv()
	if len(args) == 0 {
		return false
	}
	_, err := exec.LookPath(args[0])
	return err == nil
}

func (r *CommandRecognizer) Start(ctx context.Context) (<-chan Transcript, error) {
	if !r.Available() {
		return nil, ErrUnsupported
	}
	args := r.argv()
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(os.Environ(), "THRONEMIND_LOCALE="+r.Locale)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recognizer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recognizer: %w", err)
	}
	log.Debug().Str("cmd", args[0]).Str("locale", r.Locale).Msg("voice recognizer started")

	out := make(chan Transcript)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			t, ok := parseLine(sc.Text())
			if !ok || !t.Final {
				continue
			}
			select {
			case out <- t:
			case <-ctx.Done():
				_ = cmd.Wait()
				return
			}
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("voice recognizer exited")
		}
	}()
	return out, nil
}

func parseLine(line string) (Transcript, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Transcript{}, false
	}
	if rest, ok := strings.CutPrefix(line, partialPrefix); ok {
		rest = strings.TrimSpace(rest)
		return Transcript{Text: rest}, rest != ""
	}
	return Transcript{Text: line, Final: true}, true
}

// Join appends a transcript to existing input text.
func Join(current, text string) string {
	current = strings.TrimRight(current, " ")
	if current == "" {
		return text
	}
	return current + " " + text
}
